package qserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/infra/buildinfo"
)

func testTable(t *testing.T) *FunctionTable {
	t.Helper()
	ft := NewFunctionTable(nil)
	registerBuiltins(ft, NewRegistry())
	ft.Register("f", func(_ context.Context, args []*domain.Value) (*domain.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("rank")
		}
		n, err := args[0].Long()
		if err != nil {
			return nil, errors.New("type")
		}
		return domain.NewLong(2 * n), nil
	})
	ft.Register("boom", func(context.Context, []*domain.Value) (*domain.Value, error) {
		panic("kaboom")
	})
	ft.Register("nothing", func(context.Context, []*domain.Value) (*domain.Value, error) {
		return nil, nil
	})
	return ft
}

func TestFunctionTable_Dispatch(t *testing.T) {
	ft := testTable(t)

	tests := []struct {
		name string
		req  *domain.Value
		want *domain.Value
	}{
		{
			name: "function with argument",
			req:  domain.NewCompoundList(domain.NewSymbol("f"), domain.NewLong(20)),
			want: domain.NewLong(40),
		},
		{
			name: "function error becomes error value",
			req:  domain.NewCompoundList(domain.NewSymbol("f"), domain.NewSymbol("x")),
			want: domain.NewErrorValue("type"),
		},
		{
			name: "wrong arity",
			req:  domain.NewCompoundList(domain.NewSymbol("f")),
			want: domain.NewErrorValue("rank"),
		},
		{
			name: "unknown function names itself",
			req:  domain.NewCompoundList(domain.NewSymbol("g"), domain.NewLong(1)),
			want: domain.NewErrorValue("g"),
		},
		{
			name: "symbol atom",
			req:  domain.NewSymbol(".qipc.ping"),
			want: domain.NewSymbol("pong"),
		},
		{
			name: "text naming a function",
			req:  domain.NewString(" .qipc.ping ", domain.AttrNone),
			want: domain.NewSymbol("pong"),
		},
		{
			name: "unknown text",
			req:  domain.NewString("nosuch", domain.AttrNone),
			want: domain.NewErrorValue("nosuch"),
		},
		{
			name: "expression text",
			req:  domain.NewString("1+1", domain.AttrNone),
			want: domain.NewErrorValue("1+1"),
		},
		{
			name: "text with spaces",
			req:  domain.NewString("til 10", domain.AttrNone),
			want: domain.NewErrorValue(errNYI),
		},
		{
			name: "echo single argument",
			req:  domain.NewCompoundList(domain.NewSymbol(".qipc.echo"), domain.NewLongList([]int64{1, 2}, domain.AttrNone)),
			want: domain.NewLongList([]int64{1, 2}, domain.AttrNone),
		},
		{
			name: "nil result is null",
			req:  domain.NewSymbol("nothing"),
			want: domain.NewNull(),
		},
		{
			name: "panic is contained",
			req:  domain.NewSymbol("boom"),
			want: domain.NewErrorValue("boom: kaboom"),
		},
		{
			name: "atom is not a call",
			req:  domain.NewLong(5),
			want: domain.NewErrorValue(errNYI),
		},
		{
			name: "list without leading symbol",
			req:  domain.NewCompoundList(domain.NewLong(1), domain.NewLong(2)),
			want: domain.NewErrorValue(errNYI),
		},
		{
			name: "empty list",
			req:  domain.NewCompoundList(),
			want: domain.NewErrorValue(errNYI),
		},
		{
			name: "nil request",
			req:  nil,
			want: domain.NewErrorValue(errNYI),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ft.Dispatch(context.Background(), tt.req)
			if !domain.Equal(got, tt.want) {
				t.Errorf("Dispatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFunctionTable_Builtins(t *testing.T) {
	ft := testTable(t)
	ctx := context.Background()

	ts := ft.Dispatch(ctx, domain.NewString(".z.p", domain.AttrNone))
	if ts.Type() != domain.TypeTimestampAtom {
		t.Errorf(".z.p type = %v, want timestamp", ts.Type())
	}

	table := ft.Dispatch(ctx, domain.NewSymbol(".qipc.sessions"))
	if table.Type() != domain.TypeTable {
		t.Fatalf(".qipc.sessions type = %v, want table", table.Type())
	}
	if table.Len() != 0 {
		t.Errorf(".qipc.sessions rows = %d, want 0", table.Len())
	}

	version := ft.Dispatch(ctx, domain.NewSymbol(".qipc.version"))
	keys, values, err := version.Dictionary()
	if err != nil {
		t.Fatalf(".qipc.version type = %v, want dictionary", version.Type())
	}
	names, err := keys.SymbolList()
	if err != nil || strings.Join(names, ",") != "version,commit,built,go" {
		t.Errorf(".qipc.version keys = %v, %v", names, err)
	}
	first, err := values.Index(0)
	if err != nil {
		t.Fatalf("Index(0) error = %v", err)
	}
	if got, _ := first.Text(); got != buildinfo.Version {
		t.Errorf(".qipc.version version = %q, want %q", got, buildinfo.Version)
	}

	multi := ft.Dispatch(ctx, domain.NewCompoundList(domain.NewSymbol(".qipc.echo"), domain.NewLong(1), domain.NewSymbol("a")))
	want := domain.NewCompoundList(domain.NewLong(1), domain.NewSymbol("a"))
	if !domain.Equal(multi, want) {
		t.Errorf("echo of two arguments = %v, want %v", multi, want)
	}
}

func TestFunctionTable_RegisterLookup(t *testing.T) {
	ft := NewFunctionTable(nil)
	if _, ok := ft.Lookup("f"); ok {
		t.Fatal("Lookup on empty table succeeded")
	}

	ft.Register("b", func(context.Context, []*domain.Value) (*domain.Value, error) { return domain.NewLong(1), nil })
	ft.Register("a", func(context.Context, []*domain.Value) (*domain.Value, error) { return domain.NewLong(2), nil })
	ft.Register("b", func(context.Context, []*domain.Value) (*domain.Value, error) { return domain.NewLong(3), nil })

	names := ft.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
	got := ft.Dispatch(context.Background(), domain.NewSymbol("b"))
	if !domain.Equal(got, domain.NewLong(3)) {
		t.Errorf("re-registered b = %v, want 3", got)
	}
}
