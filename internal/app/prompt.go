package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/toolbox/internal/task"
)

// PromptConfigurator is a line-oriented configuration step. Parameterized
// tasks are asked for each parameter; other tasks for confirmation. End of
// input or "q" cancels.
type PromptConfigurator struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

var _ task.Configurator = (*PromptConfigurator)(nil)

// NewPromptConfigurator reads answers from in and writes prompts to out.
func NewPromptConfigurator(in io.Reader, out io.Writer) *PromptConfigurator {
	if out == nil {
		out = io.Discard
	}
	return &PromptConfigurator{in: bufio.NewReader(in), out: out}
}

// Factory returns a task.ConfiguratorFactory handing out p.
func (p *PromptConfigurator) Factory() task.ConfiguratorFactory {
	return func() (task.Configurator, error) { return p, nil }
}

// Configure implements task.Configurator.
func (p *PromptConfigurator) Configure(ctx context.Context, t task.Task) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pt, ok := t.(task.Parameterized)
	if !ok || len(pt.Params()) == 0 {
		answer, err := p.ask(ctx, fmt.Sprintf("Run %s? [Y/n] ", t.Name()))
		if err != nil {
			return nil, err
		}
		if a := strings.ToLower(answer); a == "n" || a == "no" {
			return nil, task.ErrConfigurationCancelled
		}
		return t, nil
	}

	fmt.Fprintf(p.out, "Configure %s (q to cancel)\n", t.Name())
	for _, param := range pt.Params() {
		for {
			label := param.Name
			if param.Description != "" {
				label += " (" + param.Description + ")"
			}
			answer, err := p.ask(ctx, fmt.Sprintf("  %s [%s]: ", label, param.Value))
			if err != nil {
				return nil, err
			}
			if answer == "" {
				break
			}
			if err := pt.SetParam(param.Name, answer); err != nil {
				fmt.Fprintf(p.out, "  %v\n", err)
				continue
			}
			break
		}
	}
	return t, nil
}

// ask prints prompt and reads one trimmed line.
func (p *PromptConfigurator) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	switch {
	case errors.Is(err, io.EOF) && line == "":
		return "", task.ErrConfigurationCancelled
	case err != nil && !errors.Is(err, io.EOF):
		return "", err
	case line == "q":
		return "", task.ErrConfigurationCancelled
	}
	return line, nil
}
