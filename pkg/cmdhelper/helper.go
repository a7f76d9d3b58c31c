// Package cmdhelper provides common methods to help to build cli commands.
package cmdhelper

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

// ActionFunc is a function type to set *cli.Command Action or Before hooks.
type ActionFunc func(ctx context.Context, cmd *cli.Command) error

// Fprintf is a wrapper around fmt.Fprintf to suppress the error check and
// guarantee a trailing newline.
func Fprintf(w io.Writer, format string, args ...any) {
	if len(format) == 0 || format[len(format)-1] != '\n' {
		format += "\n"
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

// NoArgs returns an error if any args are included.
func NoArgs() ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		if n := cmd.Args().Len(); n != 0 {
			return fmt.Errorf("accepts no args, received %d", n)
		}
		return nil
	}
}

// ExactArgs returns an error if there are not exactly n args.
func ExactArgs(n int) ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		if got := cmd.Args().Len(); got != n {
			return fmt.Errorf("accepts %d arg(s), received %d", n, got)
		}
		return nil
	}
}

// MinimumNArgs returns an error if there is not at least n args.
func MinimumNArgs(n int) ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		if got := cmd.Args().Len(); got < n {
			return fmt.Errorf("accepts at least %d arg(s), received %d", n, got)
		}
		return nil
	}
}
