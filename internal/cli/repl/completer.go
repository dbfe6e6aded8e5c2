package repl

import (
	"sort"
	"strings"
)

// builtinNames are the functions every qipc-server registers.
var builtinNames = []string{".z.p", ".qipc.ping", ".qipc.echo", ".qipc.sessions", ".qipc.version"}

// Completer keeps the function names offered by \f.
type Completer struct {
	names map[string]struct{}
}

// NewCompleter creates a Completer seeded with the server built-ins.
func NewCompleter(extra ...string) *Completer {
	c := &Completer{names: make(map[string]struct{})}
	c.Add(builtinNames...)
	c.Add(extra...)
	return c
}

// Add registers names.
func (c *Completer) Add(names ...string) {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			c.names[n] = struct{}{}
		}
	}
}

// Complete returns the sorted names starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for n := range c.names {
		if strings.HasPrefix(n, prefix) {
			suggestions = append(suggestions, n)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}
