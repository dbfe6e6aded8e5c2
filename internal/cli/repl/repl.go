package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yndnr/qipc-go/internal/cli/output"
	"github.com/yndnr/qipc-go/internal/core/domain"
)

// DefaultPrompt is printed before each line.
const DefaultPrompt = "q)"

// Evaluator sends one line to the peer and returns the reply.
type Evaluator func(ctx context.Context, line string) (*domain.Value, error)

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	eval      Evaluator
	formatter output.Formatter
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithFormatter sets how replies are printed.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) {
		if f != nil {
			r.formatter = f
		}
	}
}

// WithHistoryFile persists history to path.
func WithHistoryFile(path string) Option {
	return func(r *REPL) { r.history = NewHistory(path) }
}

// WithCompleter replaces the function name completer.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		if c != nil {
			r.completer = c
		}
	}
}

// New creates a new REPL instance.
func New(eval Evaluator, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    DefaultPrompt,
		eval:      eval,
		formatter: &output.QFormatter{},
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the session history.
func (r *REPL) History() *History { return r.history }

var errQuit = errors.New("quit")

// Run reads lines until EOF, a quit command or ctx is done. History is
// loaded before the first prompt and saved on return.
func (r *REPL) Run(ctx context.Context) (err error) {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history: %v\n", err)
	}
	defer func() {
		if serr := r.history.Save(); serr != nil && err == nil {
			err = serr
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, rerr := reader.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return rerr
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if rerr != nil {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)
		if err := r.execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(r.output, "error: %v\n", err)
		}
		if rerr != nil {
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	if line == "exit" || line == "quit" {
		return errQuit
	}
	if strings.HasPrefix(line, `\`) {
		return r.command(line)
	}
	if r.eval == nil {
		return errors.New("no evaluator")
	}
	v, err := r.eval(ctx, line)
	if err != nil {
		return err
	}
	if v == nil || v.Type() == domain.TypeNull {
		return nil
	}
	return r.formatter.Format(r.output, v)
}

func (r *REPL) command(line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case `\\`, `\q`:
		return errQuit
	case `\h`:
		n := 20
		if arg != "" {
			var err error
			if n, err = strconv.Atoi(arg); err != nil {
				return fmt.Errorf("\\h: %q is not a count", arg)
			}
		}
		for _, e := range r.history.Last(n) {
			fmt.Fprintln(r.output, e)
		}
		return nil
	case `\f`:
		for _, n := range r.completer.Complete(arg) {
			fmt.Fprintln(r.output, n)
		}
		return nil
	}
	return fmt.Errorf("unknown command %s", name)
}
