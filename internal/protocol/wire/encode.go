package wire

import (
	"math"
	"strings"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// Type bytes that have no list/atom counterpart.
const (
	typeTable      byte = 0x62
	typeDictionary byte = 0x63
	typeNull       byte = 0x65
	typeSortedDict byte = 0x7f
	typeError      byte = 0x80
)

type encoder struct {
	buf   []byte
	order ByteOrder
	depth int
}

func (e *encoder) count(n int) error {
	if uint64(n) > math.MaxUint32 {
		return domain.ErrUnencodable.Detailf("list of %d elements", n)
	}
	e.buf = e.order.AppendUint32(e.buf, uint32(n))
	return nil
}

func (e *encoder) cstring(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return domain.ErrUnencodable.Detailf("symbol %q contains NUL", s)
	}
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
	return nil
}

func (e *encoder) value(v *domain.Value) error {
	if v == nil {
		return domain.ErrUnencodable.WithDetails("nil value")
	}
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		return domain.ErrNestingTooDeep.Detailf("depth %d", e.depth)
	}
	t := v.Type()
	switch {
	case t == domain.TypeNull:
		e.buf = append(e.buf, typeNull, 0)
		return nil
	case t == domain.TypeError:
		e.buf = append(e.buf, typeError)
		return e.cstring(v.Data().(string))
	case t.IsAtom():
		e.buf = append(e.buf, byte(t))
		return e.atom(v.Data())
	case t == domain.TypeCompoundList:
		xs := v.Data().([]*domain.Value)
		e.buf = append(e.buf, byte(t), byte(v.Attribute()))
		if err := e.count(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := e.value(x); err != nil {
				return err
			}
		}
		return nil
	case t.IsList():
		e.buf = append(e.buf, byte(t), byte(v.Attribute()))
		if err := e.count(v.Len()); err != nil {
			return err
		}
		return e.list(v.Data())
	case t == domain.TypeTable:
		dict, _ := v.Unflip()
		e.buf = append(e.buf, typeTable, byte(v.Attribute()))
		return e.value(dict)
	case t == domain.TypeDictionary || t == domain.TypeSortedDictionary:
		keys, values, _ := v.Dictionary()
		if t == domain.TypeSortedDictionary {
			e.buf = append(e.buf, typeSortedDict)
		} else {
			e.buf = append(e.buf, typeDictionary)
		}
		if err := e.value(keys); err != nil {
			return err
		}
		return e.value(values)
	}
	return domain.ErrUnencodable.Detailf("type %d", int8(t))
}

func (e *encoder) atom(x any) error {
	switch x := x.(type) {
	case bool:
		e.buf = append(e.buf, boolByte(x))
	case domain.GUID:
		e.buf = append(e.buf, x[:]...)
	case byte:
		e.buf = append(e.buf, x)
	case int16:
		e.buf = e.order.AppendUint16(e.buf, uint16(x))
	case int32:
		e.buf = e.order.AppendUint32(e.buf, uint32(x))
	case int64:
		e.buf = e.order.AppendUint64(e.buf, uint64(x))
	case float32:
		e.buf = e.order.AppendUint32(e.buf, math.Float32bits(x))
	case float64:
		e.buf = e.order.AppendUint64(e.buf, math.Float64bits(x))
	case string:
		return e.cstring(x)
	default:
		return domain.ErrUnencodable.Detailf("atom payload %T", x)
	}
	return nil
}

func (e *encoder) list(data any) error {
	switch xs := data.(type) {
	case []bool:
		for _, x := range xs {
			e.buf = append(e.buf, boolByte(x))
		}
	case []domain.GUID:
		for _, x := range xs {
			e.buf = append(e.buf, x[:]...)
		}
	case []byte:
		e.buf = append(e.buf, xs...)
	case []int16:
		for _, x := range xs {
			e.buf = e.order.AppendUint16(e.buf, uint16(x))
		}
	case []int32:
		for _, x := range xs {
			e.buf = e.order.AppendUint32(e.buf, uint32(x))
		}
	case []int64:
		for _, x := range xs {
			e.buf = e.order.AppendUint64(e.buf, uint64(x))
		}
	case []float32:
		for _, x := range xs {
			e.buf = e.order.AppendUint32(e.buf, math.Float32bits(x))
		}
	case []float64:
		for _, x := range xs {
			e.buf = e.order.AppendUint64(e.buf, math.Float64bits(x))
		}
	case []string:
		for _, x := range xs {
			if err := e.cstring(x); err != nil {
				return err
			}
		}
	default:
		return domain.ErrUnencodable.Detailf("list payload %T", xs)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
