// Package cli is the kanban command line: a cobra command tree over the
// board repository and the auth client.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/auth"
	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/config"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options tune where the CLI reads and writes. Zero values use the process
// streams and the default config locations.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Paths  config.Paths

	// RunTUI replaces the interactive board, e.g. in tests.
	RunTUI func(ctx context.Context, a *App, boardID string) error
}

// usageError marks bad invocations; they exit with ExitUsage.
type usageError struct{ msg, hint string }

func (e *usageError) Error() string { return e.msg }

func usagef(hint, msg string) error { return &usageError{msg: msg, hint: hint} }

// Run executes args and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	a := &App{opt: opt}
	defer a.Close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(opt.Stdin)
	root.SetOut(opt.Stdout)
	root.SetErr(opt.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	return report(opt.Stderr, err)
}

// report prints err and maps it to an exit code.
func report(w io.Writer, err error) int {
	var ue *usageError
	var ae *auth.Error
	switch {
	case errors.As(err, &ue):
		ui.Fail(w, ue.msg)
		if ue.hint != "" {
			ui.Hint(w, ue.hint)
		}
		return ExitUsage
	case isFieldErrors(err):
		fe, _ := model.AsFieldErrors(err)
		printFieldErrors(w, fe)
		return ExitUsage
	case errors.Is(err, board.ErrBoardNotFound):
		ui.Fail(w, err.Error())
		ui.Hint(w, "run `kanban board ls` to see valid boards")
		return ExitUsage
	case errors.Is(err, board.ErrColumnNotFound), errors.Is(err, board.ErrTaskNotFound):
		ui.Fail(w, err.Error())
		ui.Hint(w, "run `kanban board show <board>` to see valid ids")
		return ExitUsage
	case errors.As(err, &ae):
		ui.Fail(w, ae.Field+": "+ae.Message)
		return ExitError
	case isCobraUsage(err):
		ui.Fail(w, err.Error())
		ui.Hint(w, "run `kanban --help` for usage")
		return ExitUsage
	}
	ui.Fail(w, err.Error())
	return ExitError
}

func isFieldErrors(err error) bool {
	_, ok := model.AsFieldErrors(err)
	return ok
}

// cobra reports these as plain errors.
func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, p := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires ", "invalid argument", "flag needs an argument", "required flag"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func printFieldErrors(w io.Writer, fe model.FieldErrors) {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		ui.Fail(w, f+": "+fe[f])
	}
}

func newRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "kanban - a local Kanban board",
		Long: `kanban keeps boards, columns and tasks on this machine.

Sign in with ` + "`kanban auth login`" + ` first; board commands need a session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ~/.kanban/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "plain output")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usagef("run `kanban --help` for usage", err.Error())
	})

	root.AddCommand(
		newBoardCmd(a),
		newColumnCmd(a),
		newTaskCmd(a),
		newTUICmd(a),
		newAuthCmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs with a usage line.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("", "usage: "+cmd.UseLine())
		}
		return nil
	}
}
