package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Prompter reads answers line by line. A single Prompter should back both the
// TerminalDecider and the TerminalPicker so buffered input is not lost.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func (p *Prompter) start() {
	p.once.Do(func() {
		p.lines = make(chan lineResult)
		go func() {
			r := bufio.NewReader(p.In)
			for {
				s, err := r.ReadString('\n')
				if err != nil && s == "" {
					p.lines <- lineResult{err: err}
					close(p.lines)
					return
				}
				p.lines <- lineResult{text: strings.TrimRight(s, "\r\n")}
			}
		}()
	})
}

// Ask writes prompt and waits for the next line or ctx cancellation.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	p.start()
	if p.Out != nil {
		fmt.Fprint(p.Out, prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// TerminalDecider asks a yes/no question. Only y or yes chooses to pick a file.
type TerminalDecider struct {
	Prompter *Prompter
}

func (d *TerminalDecider) Decide(ctx context.Context, question string) (Choice, error) {
	answer, err := d.Prompter.Ask(ctx, question+" [y/N]: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ChooseAbort, nil
		}
		return ChooseAbort, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return ChoosePick, nil
	}
	return ChooseAbort, nil
}

// HTMLExtensions are the file types TerminalPicker accepts.
var HTMLExtensions = []string{".html", ".htm"}

// TerminalPicker asks for a path to an HTML file. A blank line or end of
// input dismisses the selection; other file types are rejected and asked
// again.
type TerminalPicker struct {
	Prompter *Prompter
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

func (p *TerminalPicker) Pick(ctx context.Context) ([]byte, string, bool, error) {
	read := p.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	for {
		answer, err := p.Prompter.Ask(ctx, "Path to reports.html (blank to cancel): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", false, nil
			}
			return nil, "", false, err
		}
		path := strings.Trim(strings.TrimSpace(answer), `"'`)
		if path == "" {
			return nil, "", false, nil
		}
		if !isHTMLFile(path) {
			if p.Prompter.Out != nil {
				fmt.Fprintf(p.Prompter.Out, "%s is not an HTML file\n", path)
			}
			continue
		}
		b, err := read(path)
		if err != nil {
			return nil, "", false, fmt.Errorf("read %s: %w", path, err)
		}
		return b, path, true, nil
	}
}

func isHTMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range HTMLExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
