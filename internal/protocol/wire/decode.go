package wire

import (
	"bytes"
	"math"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// maxDepth bounds nesting of compound lists, dictionaries and tables.
const maxDepth = 1024

type decoder struct {
	b     []byte
	pos   int
	order ByteOrder
	depth int
}

func (d *decoder) remaining() int { return len(d.b) - d.pos }

func (d *decoder) need(n int) error {
	if n < 0 || d.remaining() < n {
		return domain.ErrTruncated.Detailf("need %d bytes at offset %d, have %d", n, d.pos, d.remaining())
	}
	return nil
}

func (d *decoder) byte1() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.b[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.b[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) cstring() (string, error) {
	i := bytes.IndexByte(d.b[d.pos:], 0)
	if i < 0 {
		return "", domain.ErrTruncated.Detailf("unterminated string at offset %d", d.pos)
	}
	s := string(d.b[d.pos : d.pos+i])
	d.pos += i + 1
	return s, nil
}

func (d *decoder) value() (*domain.Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDepth {
		return nil, domain.ErrNestingTooDeep.Detailf("depth %d", d.depth)
	}

	tb, err := d.byte1()
	if err != nil {
		return nil, err
	}
	t := domain.Type(int8(tb))

	switch {
	case tb == typeNull:
		if _, err := d.byte1(); err != nil {
			return nil, err
		}
		return domain.NewNull(), nil
	case tb == typeError:
		s, err := d.cstring()
		if err != nil {
			return nil, err
		}
		return domain.NewErrorValue(s), nil
	case tb == typeTable:
		return d.table()
	case tb == typeDictionary || tb == typeSortedDict:
		return d.dictionary(tb == typeSortedDict)
	case t.IsAtom():
		return d.atom(t)
	case t.IsList():
		return d.list(t)
	}
	return nil, domain.ErrUnknownType.Detailf("type byte %#02x at offset %d", tb, d.pos-1)
}

func (d *decoder) atom(t domain.Type) (*domain.Value, error) {
	if t == domain.TypeSymbolAtom {
		s, err := d.cstring()
		if err != nil {
			return nil, err
		}
		return domain.NewSymbol(s), nil
	}
	b, err := d.take(t.Size())
	if err != nil {
		return nil, err
	}
	return domain.NewAtom(t, d.element(t, b))
}

// element converts one fixed-width element to its storage payload.
func (d *decoder) element(t domain.Type, b []byte) any {
	switch t {
	case domain.TypeBoolAtom:
		return b[0] != 0
	case domain.TypeGUIDAtom:
		var g domain.GUID
		copy(g[:], b)
		return g
	case domain.TypeByteAtom, domain.TypeCharAtom:
		return b[0]
	case domain.TypeShortAtom:
		return int16(d.order.Uint16(b))
	case domain.TypeRealAtom:
		return math.Float32frombits(d.order.Uint32(b))
	case domain.TypeFloatAtom, domain.TypeDatetimeAtom:
		return math.Float64frombits(d.order.Uint64(b))
	}
	if t.Size() == 4 {
		return int32(d.order.Uint32(b))
	}
	return int64(d.order.Uint64(b))
}

func (d *decoder) listHeader() (domain.Attribute, int, error) {
	b, err := d.take(5)
	if err != nil {
		return 0, 0, err
	}
	attr := domain.Attribute(int8(b[0]))
	if !attr.Valid() {
		return 0, 0, domain.ErrMalformedValue.Detailf("attribute %d", b[0])
	}
	n := d.order.Uint32(b[1:])
	if uint64(n) > uint64(d.remaining()) {
		return 0, 0, domain.ErrTruncated.Detailf("count %d exceeds %d remaining bytes", n, d.remaining())
	}
	return attr, int(n), nil
}

func (d *decoder) list(t domain.Type) (*domain.Value, error) {
	attr, n, err := d.listHeader()
	if err != nil {
		return nil, err
	}
	v, err := domain.NewListOf(t, attr, n)
	if err != nil {
		return nil, err
	}

	switch xs := v.Data().(type) {
	case []*domain.Value:
		for i := range xs {
			if xs[i], err = d.value(); err != nil {
				return nil, err
			}
		}
		return v, nil
	case []string:
		for i := range xs {
			if xs[i], err = d.cstring(); err != nil {
				return nil, err
			}
		}
		return v, nil
	}

	size := t.Size()
	raw, err := d.take(n * size)
	if err != nil {
		return nil, err
	}
	elem := t.Elem()
	switch xs := v.Data().(type) {
	case []byte:
		copy(xs, raw)
	case []bool:
		for i := range xs {
			xs[i] = raw[i] != 0
		}
	case []domain.GUID:
		for i := range xs {
			copy(xs[i][:], raw[i*16:])
		}
	case []int16:
		for i := range xs {
			xs[i] = int16(d.order.Uint16(raw[i*2:]))
		}
	case []int32:
		for i := range xs {
			xs[i] = int32(d.order.Uint32(raw[i*4:]))
		}
	case []int64:
		for i := range xs {
			xs[i] = int64(d.order.Uint64(raw[i*8:]))
		}
	case []float32:
		for i := range xs {
			xs[i] = math.Float32frombits(d.order.Uint32(raw[i*4:]))
		}
	case []float64:
		for i := range xs {
			xs[i] = math.Float64frombits(d.order.Uint64(raw[i*8:]))
		}
	default:
		return nil, domain.ErrUnknownType.Detailf("list of %s", elem)
	}
	return v, nil
}

func (d *decoder) dictionary(sorted bool) (*domain.Value, error) {
	keys, err := d.value()
	if err != nil {
		return nil, err
	}
	values, err := d.value()
	if err != nil {
		return nil, err
	}
	var v *domain.Value
	if sorted {
		v, err = domain.NewSortedDictionary(keys, values)
	} else {
		v, err = domain.NewDictionary(keys, values)
	}
	if err != nil {
		return nil, domain.ErrMalformedValue.WithCause(err)
	}
	return v, nil
}

func (d *decoder) table() (*domain.Value, error) {
	b, err := d.take(2)
	if err != nil {
		return nil, err
	}
	attr := domain.Attribute(int8(b[0]))
	if b[1] != typeDictionary {
		return nil, domain.ErrMalformedValue.Detailf("table body type %#02x", b[1])
	}
	dict, err := d.dictionary(false)
	if err != nil {
		return nil, err
	}
	table, err := dict.Flip()
	if err != nil {
		return nil, domain.ErrMalformedValue.WithCause(err)
	}
	if err := table.SetAttribute(attr); err != nil {
		return nil, domain.ErrMalformedValue.WithCause(err)
	}
	return table, nil
}
