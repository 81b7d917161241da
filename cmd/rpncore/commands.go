package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"

	"rpncalc/core-go/pkg/driver"
	"rpncalc/core-go/pkg/interpreter"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

func runCommand(c *cli.Context) error {
	e, err := loadEngine(c.Args().First())
	if err != nil {
		return err
	}
	if label := c.String("label"); label != "" {
		name, err := runtime.NewName(label)
		if err != nil {
			return fmt.Errorf("--label: %w", err)
		}
		st, err := e.Execute(&program.Instruction{Op: program.OpXeq, Arg: runtime.NameArg(name)})
		if err != nil || st != runtime.StatusRun {
			return finish(c, e, st, err)
		}
	}
	st, err := drive(e, c.Int("max-steps"))
	return finish(c, e, st, err)
}

// execute runs one keyboard instruction and whatever program it starts.
func execute(c *cli.Context, e *interpreter.Engine, in *program.Instruction) (runtime.Status, error) {
	st, err := e.Execute(in)
	if err != nil || st != runtime.StatusRun {
		return st, err
	}
	return drive(e, c.Int("max-steps"))
}

func requiredName(c *cli.Context, flag string) (runtime.Name, error) {
	v := c.String(flag)
	if v == "" {
		return "", fmt.Errorf("--%s is required", flag)
	}
	name, err := runtime.NewName(v)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", flag, err)
	}
	return name, nil
}

func solveCommand(c *cli.Context) error {
	e, err := loadEngine(c.Args().First())
	if err != nil {
		return err
	}
	prgm, err := requiredName(c, "prgm")
	if err != nil {
		return err
	}
	v, err := requiredName(c, "var")
	if err != nil {
		return err
	}
	guesses := c.StringSlice("guess")
	if len(guesses) == 0 || len(guesses) > 2 {
		return fmt.Errorf("--guess must be given once or twice")
	}
	// the second guess goes in first so it becomes the shadow of the first
	for i := len(guesses) - 1; i >= 0; i-- {
		x, err := strconv.ParseFloat(guesses[i], 64)
		if err != nil {
			return fmt.Errorf("--guess %q: %w", guesses[i], err)
		}
		if err := e.EnterSolveVariable(v, runtime.RealValue{Val: x}); err != nil {
			return err
		}
	}

	if _, err := e.Execute(&program.Instruction{Op: program.OpPgmSlv, Arg: runtime.NameArg(prgm)}); err != nil {
		return err
	}
	st, err := execute(c, e, &program.Instruction{Op: program.OpSolve, Arg: runtime.NameArg(v)})
	return finish(c, e, st, err)
}

func integCommand(c *cli.Context) error {
	e, err := loadEngine(c.Args().First())
	if err != nil {
		return err
	}
	prgm, err := requiredName(c, "prgm")
	if err != nil {
		return err
	}
	v, err := requiredName(c, "var")
	if err != nil {
		return err
	}
	vars := e.Variables()
	params := []struct {
		flag string
		name runtime.Name
	}{
		{"llim", "LLIM"},
		{"ulim", "ULIM"},
		{"acc", "ACC"},
	}
	for _, p := range params {
		if !c.IsSet(p.flag) {
			continue
		}
		if err := vars.Store(p.name, runtime.RealValue{Val: c.Float64(p.flag)}); err != nil {
			return err
		}
	}

	if _, err := e.Execute(&program.Instruction{Op: program.OpPgmInt, Arg: runtime.NameArg(prgm)}); err != nil {
		return err
	}
	st, err := execute(c, e, &program.Instruction{Op: program.OpInteg, Arg: runtime.NameArg(v)})
	return finish(c, e, st, err)
}

func resumeCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing state file")
	}
	e, err := driver.LoadState(path, engineOptions(), nil)
	if err != nil {
		return err
	}
	if !e.Running() {
		logger.Info().Str("state", path).Msg("session was not suspended")
		printStack(os.Stdout, e)
		return nil
	}
	st, err := drive(e, c.Int("max-steps"))
	if err == nil && st == runtime.StatusRun && c.String("save") == "" {
		// keep suspending into the same file
		if err := driver.SaveState(path, e); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "suspended at program %d line %02d; resume with: rpncore resume %s\n",
			e.Position().Prgm, e.Line(), path)
		return nil
	}
	return finish(c, e, st, err)
}

func inspectCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing state file")
	}
	s, err := driver.ReadState(path, nil)
	if err != nil {
		return err
	}
	out, err := driver.MarshalReport(driver.Describe(s))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
