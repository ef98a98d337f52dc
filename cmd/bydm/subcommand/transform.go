package subcommand

import (
	"fmt"

	"bydm/internal/app"
)

type TransformCommand struct {
	Source   string `help:"Source XML file, relative to the source folder unless it contains a folder." short:"s" required:""`
	Config   string `help:"Mapping configuration name or path." short:"c" required:""`
	Template string `help:"Output template name or path." short:"t" required:""`
}

func (r *TransformCommand) Run(a *app.App) error {
	ctx, cancel := a.Context()
	defer cancel()

	result, err := a.Service.ProcessFile(ctx, r.Source, r.Config, r.Template)
	if err != nil {
		return err
	}
	if err := printJSON(a.Out, result); err != nil {
		return err
	}
	if !result.OK() {
		return fmt.Errorf("%s: %s", result.SourceFile, result.Status)
	}
	return nil
}
