package subcommand

import (
	"fmt"

	"bydm/internal/app"
)

type BatchCommand struct {
	Folder   string `help:"Source folder; defaults to the configured source folder." short:"f"`
	Config   string `help:"Mapping configuration name or path." short:"c" required:""`
	Template string `help:"Output template name or path." short:"t" required:""`
	Strict   bool   `help:"Exit non-zero when any document did not succeed."`
}

func (r *BatchCommand) Run(a *app.App) error {
	ctx, cancel := a.Context()
	defer cancel()

	report, err := a.Service.BatchProcess(ctx, r.Folder, r.Config, r.Template)
	if err != nil {
		return err
	}
	if err := printJSON(a.Out, report); err != nil {
		return err
	}
	if r.Strict && report.SuccessCount != len(report.Results) {
		return fmt.Errorf("batch %s: %d of %d documents did not succeed",
			report.ID, len(report.Results)-report.SuccessCount, len(report.Results))
	}
	return nil
}
