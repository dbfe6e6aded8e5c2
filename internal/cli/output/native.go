package output

import (
	"github.com/yndnr/qipc-go/internal/core/domain"
)

// Native converts v to plain Go data for JSON and YAML encoding. Nulls become
// nil, temporal atoms and infinities keep their q text, tables become a list
// of rows and symbol-keyed dictionaries become maps.
func Native(v *domain.Value) any {
	if v == nil {
		return nil
	}
	t := v.Type()
	switch {
	case t == domain.TypeNull:
		return nil
	case t == domain.TypeError:
		msg, _ := v.ErrorText()
		return map[string]any{"error": msg}
	case t == domain.TypeString:
		s, _ := v.Text()
		return s
	case t.IsAtom():
		return nativeAtom(v)
	case t.IsList():
		out := make([]any, v.Len())
		for i := range out {
			x, err := v.Index(i)
			if err != nil {
				return v.String()
			}
			out[i] = Native(x)
		}
		return out
	case t == domain.TypeTable:
		return tableRows(v)
	case t == domain.TypeDictionary || t == domain.TypeSortedDictionary:
		return nativeDict(v)
	}
	return v.String()
}

func nativeAtom(v *domain.Value) any {
	if v.IsNull() {
		return nil
	}
	if v.IsInf() || v.IsNegInf() {
		return v.String()
	}
	switch x := v.Data().(type) {
	case bool, int16, int32, int64, float32, float64:
		return x
	case byte:
		if v.Type() == domain.TypeCharAtom {
			return string([]byte{x})
		}
		return x
	case string:
		return x
	case domain.GUID:
		return x.String()
	}
	return v.String()
}

func nativeDict(v *domain.Value) any {
	if v.IsKeyedTable() {
		if flat, err := v.Unkey(); err == nil {
			return tableRows(flat)
		}
	}
	keys, values, _ := v.Dictionary()
	names, err := keys.SymbolList()
	if err != nil || !values.Type().IsList() {
		return map[string]any{"keys": Native(keys), "values": Native(values)}
	}
	out := make(map[string]any, len(names))
	for i, name := range names {
		x, err := values.Index(i)
		if err != nil {
			break
		}
		out[name] = Native(x)
	}
	return out
}

func tableRows(v *domain.Value) []map[string]any {
	names, cols, err := v.Table()
	if err != nil {
		return nil
	}
	n := v.Len()
	rows := make([]map[string]any, n)
	for r := range rows {
		row := make(map[string]any, len(names))
		for c, name := range names {
			x, err := cols[c].Index(r)
			if err != nil {
				continue
			}
			row[name] = Native(x)
		}
		rows[r] = row
	}
	return rows
}
