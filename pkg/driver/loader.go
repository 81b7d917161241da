package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rpncalc/core-go/pkg/parser"
	"rpncalc/core-go/pkg/program"
)

// SourceExt marks program listing files when loading a directory.
const SourceExt = ".rpn"

// Source is a loaded set of programs together with the text they came from.
type Source struct {
	Files    []string
	Text     string
	Programs []*program.Program
}

// LoadSource parses a program listing. A directory loads every SourceExt
// file below it in lexical path order, so programs keep a stable index.
func LoadSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("loader: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	files := []string{abs}
	if info.IsDir() {
		if files, err = indexSourceFiles(abs); err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("loader: no %s files under %s", SourceExt, abs)
		}
	}

	src := &Source{Files: files}
	var text strings.Builder
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", file, err)
		}
		progs, err := parser.Parse(data)
		if err != nil {
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				loc := perr.Location
				return nil, fmt.Errorf("loader: %s:%d:%d: %s", file, loc.Line, loc.Column, perr.Message)
			}
			return nil, fmt.Errorf("loader: %s: %w", file, err)
		}
		src.Programs = append(src.Programs, progs...)
		text.WriteString(parser.FormatAll(progs))
	}
	src.Text = text.String()
	return src, nil
}

func indexSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == SourceExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
