package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/urfave/cli"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/driver"
	"rpncalc/core-go/pkg/interpreter"
	"rpncalc/core-go/pkg/parser"
	"rpncalc/core-go/pkg/runtime"
)

const (
	historyFile = ".rpncore_history"
	promptMain  = "rpn> "
	replHelp    = `instructions run one per line; commands:
  :stack          show every stack level
  :list [n]       list program n (default: current)
  :save [file]    save the session
  :quit           leave`
)

func replCommand(c *cli.Context) error {
	var (
		e   *interpreter.Engine
		err error
	)
	if path := c.Args().First(); path != "" {
		if e, err = loadEngine(path); err != nil {
			return err
		}
	} else {
		e = interpreter.NewEngine(engineOptions())
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	red := color.New(color.FgRed).SprintFunc()
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			quit, err := replMeta(e, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, red(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		in, err := parser.ParseInstruction(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		st, err := e.Execute(&in)
		if err == nil && st == runtime.StatusRun {
			st, err = drive(e, 0)
		}
		if err != nil {
			reportError(err)
			continue
		}
		if x, err := e.Stack().X(); err == nil {
			fmt.Println(display.FormatValue(x))
		}
	}
}

// replMeta runs a ':' command and reports whether the REPL should exit.
func replMeta(e *interpreter.Engine, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Println(replHelp)
	case ":stack":
		printStack(os.Stdout, e)
	case ":list":
		n := e.Position().Prgm
		if len(fields) > 1 {
			if _, err := fmt.Sscanf(fields[1], "%d", &n); err != nil {
				return false, fmt.Errorf(":list: bad program number %q", fields[1])
			}
		}
		progs := e.Programs()
		if n < 0 || n >= len(progs) {
			return false, fmt.Errorf(":list: no program %d", n)
		}
		for _, l := range parser.Listing(progs[n]) {
			fmt.Println(l)
		}
	case ":save":
		path := config.StateFile
		if len(fields) > 1 {
			path = fields[1]
		}
		if err := driver.SaveState(path, e); err != nil {
			return false, err
		}
		fmt.Printf("saved %s\n", path)
	default:
		return false, fmt.Errorf("unknown command %s; type :help", fields[0])
	}
	return false, nil
}
