package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"rpncalc/core-go/pkg/interpreter"
)

const cliToolVersion = "rpncore 0.1.0-dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "rpncore"
	app.Usage = "run keystroke programs, equation solves and integrations"
	app.Version = cliToolVersion
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "rpncore.yaml",
			Usage: "session configuration file",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log solver and integrator transitions",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "log every executed instruction",
		},
		cli.BoolFlag{
			Name:  "classic",
			Usage: "use the four level XYZT stack",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "hide colors in results and error messages",
		},
	}
	app.Before = setup

	maxStepsFlag := cli.IntFlag{
		Name:  "max-steps",
		Usage: "suspend after this many instructions (0 runs to completion)",
	}
	saveFlag := cli.StringFlag{
		Name:  "save",
		Usage: "write the session to this state file when done",
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "Load programs and run one of them",
			ArgsUsage: "FILE|DIR",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "label", Usage: "global label to XEQ (default: top of the first program)"},
				maxStepsFlag,
				saveFlag,
			},
			Action: runCommand,
		},
		{
			Name:      "solve",
			Usage:     "Solve a program for one of its variables",
			ArgsUsage: "FILE|DIR",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "prgm", Usage: "global label of the function"},
				cli.StringFlag{Name: "var", Usage: "variable to solve for"},
				cli.StringSliceFlag{Name: "guess", Usage: "initial guess; give it twice to bracket"},
				maxStepsFlag,
				saveFlag,
			},
			Action: solveCommand,
		},
		{
			Name:      "integ",
			Usage:     "Integrate a program over one of its variables",
			ArgsUsage: "FILE|DIR",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "prgm", Usage: "global label of the integrand"},
				cli.StringFlag{Name: "var", Usage: "variable of integration"},
				cli.Float64Flag{Name: "llim", Usage: "lower limit"},
				cli.Float64Flag{Name: "ulim", Usage: "upper limit"},
				cli.Float64Flag{Name: "acc", Usage: "relative accuracy"},
				maxStepsFlag,
				saveFlag,
			},
			Action: integCommand,
		},
		{
			Name:      "resume",
			Usage:     "Continue a suspended session",
			ArgsUsage: "STATE",
			Flags:     []cli.Flag{maxStepsFlag, saveFlag},
			Action:    resumeCommand,
		},
		{
			Name:      "inspect",
			Usage:     "Print a state file as YAML",
			ArgsUsage: "STATE",
			Action:    inspectCommand,
		},
		{
			Name:      "repl",
			Usage:     "Type instructions one line at a time",
			ArgsUsage: "[FILE|DIR]",
			Action:    replCommand,
		},
	}

	app.Action = func(c *cli.Context) error {
		return cli.ShowAppHelp(c)
	}
	return app
}

func reportError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintln(os.Stderr, red(err.Error()))
	var ierr *interpreter.Error
	if errors.As(err, &ierr) {
		for _, line := range ierr.Trace() {
			fmt.Fprintln(os.Stderr, line)
		}
	}
}
