package subcommand

import (
	"context"
	"fmt"

	"bydm/internal/app"
	"bydm/internal/mapping"
)

type ListCommand struct {
	Kind   string `arg:"" enum:"mappings,templates,sources" help:"What to list: mappings, templates or sources."`
	Folder string `help:"Source folder for 'sources'." short:"f"`
}

func (r *ListCommand) Run(a *app.App) error {
	ctx, cancel := a.Context()
	defer cancel()

	var (
		names []string
		err   error
	)
	switch r.Kind {
	case "mappings":
		names, err = a.Service.ListMappings(ctx)
	case "templates":
		names, err = a.Service.ListTemplates(ctx)
	case "sources":
		names, err = a.Service.ListSources(ctx, r.Folder)
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if err != nil {
		return err
	}
	return printLines(a.Out, names)
}

type ShowMappingCommand struct {
	Name  string `arg:"" help:"Mapping name or path."`
	Local bool   `help:"Read NAME from the local filesystem instead of storage."`
}

func (r *ShowMappingCommand) Run(a *app.App) error {
	if r.Local {
		return showLocalMapping(a, r.Name)
	}
	ctx, cancel := a.Context()
	defer cancel()
	return showMapping(ctx, a, r.Name)
}

func showMapping(ctx context.Context, a *app.App, name string) error {
	doc, err := a.Service.GetMapping(ctx, name)
	if err != nil {
		return err
	}
	return printJSON(a.Out, map[string]any{
		"path":     doc.Path,
		"stats":    statsJSON(doc.Stats),
		"mappings": doc.Raw,
	})
}

// showLocalMapping checks a mapping file before it is uploaded.
func showLocalMapping(a *app.App, file string) error {
	var opts []mapping.Option
	if a.Config != nil && a.Config.Transform.LenientMappings {
		opts = append(opts, mapping.WithLenient())
	}
	cfg, err := mapping.LoadFile(file, opts...)
	if err != nil {
		return err
	}
	return printJSON(a.Out, map[string]any{
		"path":  file,
		"stats": statsJSON(cfg.Stats()),
	})
}

func statsJSON(s mapping.Stats) map[string]int {
	return map[string]int{
		"segments": s.Segments,
		"leaves":   s.Leaves,
		"arrays":   s.Arrays,
		"groups":   s.Groups,
		"invalid":  s.Invalid,
	}
}
