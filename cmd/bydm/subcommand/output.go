package subcommand

import (
	"fmt"
	"io"

	"bydm/internal/util/jsonutil"
)

func printJSON(w io.Writer, v any) error {
	b, err := jsonutil.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
