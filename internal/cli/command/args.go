package command

import (
	"strconv"
	"strings"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/session"
)

// ParseArg reads a command-line argument as a q atom or string:
//
//	42, -7       long
//	42i, 7h      int, short
//	1.5, 2e3     float
//	1b, 0b       boolean
//	`sym         symbol
//	"text"       char list
//	::           generic null
//
// Anything else is sent as a char list.
func ParseArg(s string) *domain.Value {
	switch {
	case s == "::":
		return domain.NewNull()
	case s == "0b" || s == "1b":
		return domain.NewBool(s == "1b")
	case strings.HasPrefix(s, "`"):
		return domain.NewSymbol(s[1:])
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return domain.NewString(u, domain.AttrNone)
		}
		return domain.NewString(s[1:len(s)-1], domain.AttrNone)
	}

	if n := len(s); n > 1 {
		body := s[:n-1]
		switch s[n-1] {
		case 'i':
			if x, err := strconv.ParseInt(body, 10, 32); err == nil {
				return domain.NewInt(int32(x))
			}
		case 'h':
			if x, err := strconv.ParseInt(body, 10, 16); err == nil {
				return domain.NewShort(int16(x))
			}
		case 'j':
			if x, err := strconv.ParseInt(body, 10, 64); err == nil {
				return domain.NewLong(x)
			}
		case 'f':
			if x, err := strconv.ParseFloat(body, 64); err == nil {
				return domain.NewFloat(x)
			}
		}
	}
	if x, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.NewLong(x)
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, ".eE") {
		return domain.NewFloat(x)
	}
	return domain.NewString(s, domain.AttrNone)
}

// BuildRequest turns positional arguments into a request. A single argument
// is q text; several are a call of the first with the rest parsed by
// ParseArg.
func BuildRequest(args []string) *domain.Value {
	if len(args) == 1 {
		return domain.NewString(args[0], domain.AttrNone)
	}
	values := make([]*domain.Value, 0, len(args)-1)
	for _, a := range args[1:] {
		values = append(values, ParseArg(a))
	}
	return session.Request(args[0], values...)
}
