package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const version = "0.0.1-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		if code, ok := err.(cli.ExitCoder); ok {
			if msg := code.Error(); msg != "" {
				fmt.Fprintf(stderr, "error: %s\n", msg)
			}
			return code.ExitCode()
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// commonFlags are accepted by every command that loads a project.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "project",
			Aliases: []string{"p"},
			Value:   "tsconfig.json",
			Usage:   "path to tsconfig.json",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to tskeys.config.json or tskeys.config.yaml (discovered in the working directory if unset)",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "treat unresolved references, cycles and depth cut-offs as errors",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress warnings",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored log output",
		},
	}
}

// buildFlags are accepted by build and watch.
func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "timing",
			Usage: "print a per-phase timing breakdown",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "rebuild even when no input changed since the last successful build",
		},
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "tskeys",
		Usage:     "replace keys<T>() calls with the flattened property paths of T at build time",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// build is the default command.
		DefaultCommand:  "build",
		HideHelpCommand: true,
		// Exit codes are handled by run, never by os.Exit inside the app.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "type-check, emit and rewrite keys<T>() calls in the emitted JavaScript",
				Flags: append(commonFlags(), buildFlags()...),
				Action: func(c *cli.Context) error {
					opts := optionsFrom(c, stdout, stderr)
					return runBuild(withLogging(c.Context, opts), opts)
				},
			},
			{
				Name:  "watch",
				Usage: "build, then rebuild whenever a source file or config changes",
				Flags: append(commonFlags(), buildFlags()...),
				Action: func(c *cli.Context) error {
					opts := optionsFrom(c, stdout, stderr)
					return runWatch(withLogging(c.Context, opts), opts)
				},
			},
			{
				Name:  "dump",
				Usage: "print the flattened records of every keys<T>() call as JSON",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					opts := optionsFrom(c, stdout, stderr)
					return runDump(withLogging(c.Context, opts), opts)
				},
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(stdout, "tskeys", version)
					return nil
				},
			},
		},
	}
}

func optionsFrom(c *cli.Context, stdout, stderr io.Writer) *options {
	cwd, _ := os.Getwd()
	return &options{
		Cwd:     cwd,
		Project: c.String("project"),
		Config:  c.String("config"),
		Strict:  c.Bool("strict"),
		Quiet:   c.Bool("quiet"),
		Timing:  c.Bool("timing"),
		Force:   c.Bool("force"),
		Verbose: c.Bool("verbose"),
		NoColor: c.Bool("no-color"),
		Stdout:  stdout,
		Stderr:  stderr,
	}
}
