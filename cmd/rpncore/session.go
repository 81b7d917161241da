package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/driver"
	"rpncalc/core-go/pkg/interpreter"
	"rpncalc/core-go/pkg/runtime"
)

var (
	config *driver.Config
	logger zerolog.Logger
)

// setup merges the config file with the global flags and builds the logger.
func setup(c *cli.Context) error {
	cfg, err := driver.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	if c.GlobalBool("trace") {
		cfg.Trace = true
	}
	if c.GlobalBool("debug") {
		cfg.LogLevel = zerolog.DebugLevel.String()
	}
	if c.GlobalBool("classic") {
		cfg.Stack = driver.StackClassic
	}
	if c.GlobalBool("no-color") {
		cfg.Color = false
	}
	if !cfg.Color {
		color.NoColor = true
	}

	zerolog.SetGlobalLevel(cfg.Level())
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.Color, TimeFormat: "15:04:05.000"}
	logger = zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
	config = cfg
	return nil
}

func engineOptions() interpreter.Options {
	opts := config.EngineOptions()
	opts.Display = display.NewTerminal(os.Stdout, config.Color)
	opts.Logger = &logger
	return opts
}

func loadEngine(path string) (*interpreter.Engine, error) {
	if path == "" {
		return nil, fmt.Errorf("missing program file")
	}
	src, err := driver.LoadSource(path)
	if err != nil {
		return nil, err
	}
	e := interpreter.NewEngine(engineOptions())
	e.Load(src.Programs)
	logger.Debug().Strs("files", src.Files).Int("programs", len(src.Programs)).Msg("programs loaded")
	return e, nil
}

// drive runs e until it halts or maxSteps instructions have run. An
// interrupt asks the engine to stop at its next safe point.
func drive(e *interpreter.Engine, maxSteps int) (runtime.Status, error) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigc:
			logger.Info().Msg("interrupt: stopping")
			e.RequestStop()
		case <-done:
		}
	}()
	return e.Run(context.Background(), maxSteps)
}

// finish reports the outcome of a run. A run that ran out of steps is saved
// so it can be resumed.
func finish(c *cli.Context, e *interpreter.Engine, st runtime.Status, err error) error {
	if err != nil {
		return err
	}
	save := c.String("save")
	if st == runtime.StatusRun {
		if save == "" {
			save = config.StateFile
		}
		if err := driver.SaveState(save, e); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "suspended at program %d line %02d; resume with: rpncore resume %s\n",
			e.Position().Prgm, e.Line(), save)
		return nil
	}
	printStack(os.Stdout, e)
	if save != "" {
		return driver.SaveState(save, e)
	}
	return nil
}

var levelNames = [...]string{"x", "y", "z", "t"}

// printStack lists the stack bottom first so X ends up on the last line.
func printStack(w io.Writer, e *interpreter.Engine) {
	label := color.New(color.FgBlue).SprintFunc()
	vals := e.Stack().Values()
	for i, v := range vals {
		level := len(vals) - 1 - i
		name := strconv.Itoa(level + 1)
		if level < len(levelNames) {
			name = levelNames[level]
		}
		fmt.Fprintf(w, "%s: %s\n", label(name), display.FormatValue(v))
	}
}
