// Package run starts the top-level task of a program with a logger
// configured from the command line and terminates it on signals.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Flags returns the logging flags: --log-format, --log-color and
// --verbose. Add them to the program's flag set so they show up in usage and
// are not rejected as unknown.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("logging", pflag.ContinueOnError)
	fs.String("log-format", string(tlog.FormatText), "Log format (json|text)")
	fs.String("log-color", "auto", "Colored logs (yes|no|auto)")
	fs.BoolP("verbose", "v", false, "Enable verbose (debug level) messages")
	return fs
}

// Tool runs the top-level task of the program, watching for signals.
//
// The context passed to the task carries a logger configured by the logging
// flags in args. When an interruption or termination signal arrives, the
// context is closed.
//
// Tool does not return. It exits with code 0 if the task returns nil, with
// the code of a WithExitCode error, and with code 1 for other errors. Defers
// installed before calling Tool do not run.
//
//	func main() {
//	    run.Tool(os.Args[1:], func(ctx context.Context) error {
//	        return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
//	            spawn("api", parallel.Fail, api.Run)
//	            spawn("worker", parallel.Fail, worker.Run)
//	            return nil
//	        })
//	    })
//	}
func Tool(args []string, task func(ctx context.Context) error) {
	os.Exit(exitCode(runTool(args, task)))
}

// Server is similar to Tool, except that a task ending with context.Canceled
// because of a signal counts as success
func Server(args []string, task func(ctx context.Context) error) {
	Tool(args, serverTask(task))
}

// serverTask treats the context closure as a clean exit
func serverTask(task parallel.Task) parallel.Task {
	return func(ctx context.Context) error {
		err := task(ctx)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	}
}

// WithExitCode is an optional interface that can be implemented by an error.
//
// When a (possibly wrapped) error implementing WithExitCode reaches the top
// level, the value returned by the ExitCode method becomes the exit code of the
// process. The default exit code for other errors is 1.
type WithExitCode interface {
	ExitCode() int
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var wec WithExitCode
	if errors.As(err, &wec) {
		return wec.ExitCode()
	}
	return 1
}

func runTool(args []string, task func(ctx context.Context) error) error {
	config, err := LogConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return usageError{err}
	}
	return supervise(tlog.WithLogger(context.Background(), tlog.New(config)), task, terminationSignals...)
}

// supervise runs task until it returns or one of sigs arrives
func supervise(ctx context.Context, task parallel.Task, sigs ...os.Signal) error {
	err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("main", parallel.Exit, task)
		spawn("signals", parallel.Exit, waitForSignal(sigs...))
		return nil
	})
	if err != nil {
		tlog.Get(ctx).Error("Error", zap.Error(err))
	}
	return err
}

type usageError struct {
	error
}

func (usageError) ExitCode() int {
	return 2
}

// LogConfig derives the logger configuration from the logging flags in args.
// Other flags are ignored.
func LogConfig(args []string) (tlog.Config, error) {
	fs := Flags()
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	if err := fs.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return tlog.Config{}, err
	}

	var color tlog.Color
	switch c := must.OK1(fs.GetString("log-color")); c {
	case "", "auto":
		color = tlog.ColorAuto
	case "yes":
		color = tlog.ColorYes
	case "no":
		color = tlog.ColorNo
	default:
		return tlog.Config{}, fmt.Errorf("invalid --log-color value %q", c)
	}

	format := tlog.Format(must.OK1(fs.GetString("log-format")))
	if format != tlog.FormatText && format != tlog.FormatJSON {
		return tlog.Config{}, fmt.Errorf("invalid --log-format value %q", format)
	}

	return tlog.Config{
		Format:  format,
		Color:   color,
		Verbose: must.OK1(fs.GetBool("verbose")),
	}, nil
}
