package qserver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/infra/buildinfo"
)

// Func is a Go function callable by remote peers. A returned error is sent
// back as an error value carrying its message.
type Func func(ctx context.Context, args []*domain.Value) (*domain.Value, error)

// errNYI is the reply to request shapes the table cannot evaluate.
const errNYI = "nyi"

// FunctionTable maps function names to Go implementations. It is safe for
// concurrent use; functions may be registered while sessions are served.
type FunctionTable struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	logger *slog.Logger
}

// NewFunctionTable returns an empty table.
func NewFunctionTable(logger *slog.Logger) *FunctionTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &FunctionTable{
		funcs:  make(map[string]Func),
		logger: logger,
	}
}

// Register binds name to fn, replacing any previous binding.
func (t *FunctionTable) Register(name string, fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
}

// Lookup returns the function bound to name.
func (t *FunctionTable) Lookup(name string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (t *FunctionTable) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Dispatch evaluates one request and always returns a value to send back.
//
// Accepted shapes are a compound list whose first element is a symbol naming
// the function (the rest are its arguments), a symbol atom, and text naming a
// niladic function. Everything else is answered with the error value nyi.
func (t *FunctionTable) Dispatch(ctx context.Context, req *domain.Value) (reply *domain.Value) {
	name, args, ok := parseRequest(req)
	if !ok {
		return domain.NewErrorValue(errNYI)
	}
	fn, found := t.Lookup(name)
	if !found {
		return domain.NewErrorValue(name)
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "function panicked", "function", name, "panic", r)
			reply = domain.NewErrorValue(fmt.Sprintf("%s: %v", name, r))
		}
	}()

	out, err := fn(ctx, args)
	if err != nil {
		return domain.NewErrorValue(err.Error())
	}
	if out == nil {
		return domain.NewNull()
	}
	return out
}

func parseRequest(req *domain.Value) (string, []*domain.Value, bool) {
	if req == nil {
		return "", nil, false
	}
	switch req.Type() {
	case domain.TypeSymbolAtom:
		name, _ := req.Symbol()
		return name, nil, name != ""
	case domain.TypeString:
		text, _ := req.Text()
		name := strings.TrimSpace(text)
		if name == "" || strings.ContainsAny(name, " \t\r\n;[]()") {
			return "", nil, false
		}
		return name, nil, true
	case domain.TypeCompoundList:
		xs, _ := req.CompoundList()
		if len(xs) == 0 || xs[0].Type() != domain.TypeSymbolAtom {
			return "", nil, false
		}
		name, _ := xs[0].Symbol()
		if name == "" {
			return "", nil, false
		}
		return name, xs[1:], true
	}
	return "", nil, false
}

// registerBuiltins installs the functions every server answers.
func registerBuiltins(t *FunctionTable, sessions *Registry) {
	t.Register(".z.p", func(context.Context, []*domain.Value) (*domain.Value, error) {
		return domain.NewTimestamp(time.Now()), nil
	})
	t.Register(".qipc.ping", func(context.Context, []*domain.Value) (*domain.Value, error) {
		return domain.NewSymbol("pong"), nil
	})
	t.Register(".qipc.echo", func(_ context.Context, args []*domain.Value) (*domain.Value, error) {
		switch len(args) {
		case 0:
			return domain.NewNull(), nil
		case 1:
			return args[0], nil
		}
		return domain.NewCompoundList(args...), nil
	})
	t.Register(".qipc.version", func(context.Context, []*domain.Value) (*domain.Value, error) {
		return versionDict(buildinfo.Get())
	})
	if sessions != nil {
		t.Register(".qipc.sessions", func(context.Context, []*domain.Value) (*domain.Value, error) {
			return sessions.Table()
		})
	}
}

// versionDict renders build info as a symbol-keyed dictionary of strings.
func versionDict(info buildinfo.Info) (*domain.Value, error) {
	keys := domain.NewSymbolList([]string{"version", "commit", "built", "go"}, domain.AttrNone)
	values := domain.NewCompoundList(
		domain.NewString(info.Version, domain.AttrNone),
		domain.NewString(info.Commit, domain.AttrNone),
		domain.NewString(info.BuildTime, domain.AttrNone),
		domain.NewString(info.GoVersion, domain.AttrNone),
	)
	return domain.NewDictionary(keys, values)
}
