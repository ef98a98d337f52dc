package main

import (
	"log"

	"github.com/alecthomas/kong"

	"bydm/cmd/bydm/subcommand"
	"bydm/internal/app"
)

type Command struct {
	Verbose     bool                           `help:"Enable debug logging." short:"v"`
	Transform   *subcommand.TransformCommand   `cmd:"transform" help:"Transform one IDoc XML file into a BYDM JSON document."`
	Batch       *subcommand.BatchCommand       `cmd:"batch" help:"Transform every IDoc XML file in a folder."`
	List        *subcommand.ListCommand        `cmd:"list" help:"List stored mappings, templates or source files."`
	ShowMapping *subcommand.ShowMappingCommand `cmd:"show-mapping" help:"Print a mapping configuration and its rule counts."`
	ShowLog     *subcommand.ShowLogCommand     `cmd:"show-log" help:"Print the diagnostics recorded for one document."`
}

func main() {
	command := new(Command)
	ctx := kong.Parse(
		command,
		kong.Name("bydm"),
		kong.Description("IDoc XML to BYDM JSON transformer"),
	)
	a, err := app.New(command.Verbose)
	ctx.FatalIfErrorf(err)

	err = execute(ctx, a)
	ctx.FatalIfErrorf(err)
}

// execute runs the selected command and releases the app before returning,
// since FatalIfErrorf exits without running deferred calls.
func execute(ctx *kong.Context, a *app.App) error {
	err := ctx.Run(a)
	if cerr := a.Close(); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	return err
}
