package subcommand

import (
	"bytes"

	"bydm/internal/app"
	"bydm/internal/diag"
)

type ShowLogCommand struct {
	Path string   `arg:"" help:"Document log path in storage, e.g. logs/transform_cust_20240214_093000.log."`
	Kind []string `help:"Only print events of these kinds." short:"k"`
}

func (r *ShowLogCommand) Run(a *app.App) error {
	ctx, cancel := a.Context()
	defer cancel()

	raw, err := a.Store.Get(ctx, r.Path)
	if err != nil {
		return err
	}
	events, err := diag.ReadJSONL(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if len(r.Kind) > 0 {
		want := make(map[diag.Kind]bool, len(r.Kind))
		for _, k := range r.Kind {
			want[diag.Kind(k)] = true
		}
		kept := events[:0]
		for _, e := range events {
			if want[e.Kind] {
				kept = append(kept, e)
			}
		}
		events = kept
	}
	return printJSON(a.Out, events)
}
