package domain

import (
	"math"
	"time"
)

// Value is one node of an IPC value tree.
//
// The payload held in data depends on the type:
//
//	bool atom/list            bool / []bool
//	guid                      GUID / []GUID
//	byte, char                byte / []byte
//	short                     int16 / []int16
//	int, month, date,
//	minute, second, time      int32 / []int32
//	long, timestamp, timespan int64 / []int64
//	real                      float32 / []float32
//	float, datetime           float64 / []float64
//	symbol                    string / []string
//	compound list             []*Value
//	dictionary                *dict
//	table                     *Value (a dictionary of symbols to a compound list)
//	error                     string
//	generic null              nil
//
// A Value owns its children. Values are not safe for concurrent mutation.
type Value struct {
	typ  Type
	attr Attribute
	data any
}

type dict struct {
	keys   *Value
	values *Value
}

// Type returns the type code.
func (v *Value) Type() Type { return v.typ }

// Attribute returns the list attribute.
func (v *Value) Attribute() Attribute { return v.attr }

// SetAttribute sets the attribute of a list, dictionary or table.
func (v *Value) SetAttribute(a Attribute) error {
	if !a.Valid() {
		return ErrInvalidOperation.Detailf("attribute %d", a)
	}
	if !v.typ.IsList() && v.typ != TypeDictionary && v.typ != TypeSortedDictionary && v.typ != TypeTable {
		return ErrInvalidOperation.Detailf("attribute on %s", v.typ)
	}
	v.attr = a
	return nil
}

// Data returns the raw payload. See the Value documentation for its shape.
func (v *Value) Data() any { return v.data }

// Err returns a remote error for an error value, or nil.
func (v *Value) Err() error {
	if v == nil || v.typ != TypeError {
		return nil
	}
	return ErrRemote.WithDetails(v.data.(string))
}

// NewNull returns the generic null (::).
func NewNull() *Value { return &Value{typ: TypeNull} }

// NewErrorValue returns an error value carrying msg.
func NewErrorValue(msg string) *Value { return &Value{typ: TypeError, data: msg} }

// ============================================================================
// Atoms
// ============================================================================

func NewBool(b bool) *Value           { return &Value{typ: TypeBoolAtom, data: b} }
func NewGUID(g GUID) *Value           { return &Value{typ: TypeGUIDAtom, data: g} }
func NewByte(b byte) *Value           { return &Value{typ: TypeByteAtom, data: b} }
func NewShort(n int16) *Value         { return &Value{typ: TypeShortAtom, data: n} }
func NewInt(n int32) *Value           { return &Value{typ: TypeIntAtom, data: n} }
func NewLong(n int64) *Value          { return &Value{typ: TypeLongAtom, data: n} }
func NewReal(f float32) *Value        { return &Value{typ: TypeRealAtom, data: f} }
func NewFloat(f float64) *Value       { return &Value{typ: TypeFloatAtom, data: f} }
func NewChar(c byte) *Value           { return &Value{typ: TypeCharAtom, data: c} }
func NewSymbol(s string) *Value       { return &Value{typ: TypeSymbolAtom, data: s} }
func NewTimestampRaw(n int64) *Value  { return &Value{typ: TypeTimestampAtom, data: n} }
func NewMonthRaw(n int32) *Value      { return &Value{typ: TypeMonthAtom, data: n} }
func NewDateRaw(n int32) *Value       { return &Value{typ: TypeDateAtom, data: n} }
func NewDatetimeRaw(f float64) *Value { return &Value{typ: TypeDatetimeAtom, data: f} }
func NewTimespanRaw(n int64) *Value   { return &Value{typ: TypeTimespanAtom, data: n} }
func NewMinuteRaw(n int32) *Value     { return &Value{typ: TypeMinuteAtom, data: n} }
func NewSecondRaw(n int32) *Value     { return &Value{typ: TypeSecondAtom, data: n} }
func NewTimeRaw(n int32) *Value       { return &Value{typ: TypeTimeAtom, data: n} }

// NewTimestamp converts t to nanoseconds since 2000.01.01. The zero time maps to null.
func NewTimestamp(t time.Time) *Value { return NewTimestampRaw(TimestampFromTime(t)) }

// NewMonth converts t to months since 2000.01. The zero time maps to null.
func NewMonth(t time.Time) *Value { return NewMonthRaw(MonthFromTime(t)) }

// NewDate converts t to days since 2000.01.01. The zero time maps to null.
func NewDate(t time.Time) *Value { return NewDateRaw(DateFromTime(t)) }

// NewDatetime converts t to fractional days since 2000.01.01. The zero time maps to null.
func NewDatetime(t time.Time) *Value { return NewDatetimeRaw(DatetimeFromTime(t)) }

// NewTimespan stores d in nanoseconds.
func NewTimespan(d time.Duration) *Value { return NewTimespanRaw(int64(d)) }

// NewMinute stores d truncated to minutes.
func NewMinute(d time.Duration) *Value { return NewMinuteRaw(int32(d / time.Minute)) }

// NewSecond stores d truncated to seconds.
func NewSecond(d time.Duration) *Value { return NewSecondRaw(int32(d / time.Second)) }

// NewTime stores d truncated to milliseconds.
func NewTime(d time.Duration) *Value { return NewTimeRaw(int32(d / time.Millisecond)) }

// NewAtom builds an atom of type t from its storage payload, e.g. an int32
// day count for a date.
func NewAtom(t Type, data any) (*Value, error) {
	if !t.IsAtom() {
		return nil, ErrInvalidOperation.Detailf("%s is not an atom type", t)
	}
	var ok bool
	switch t {
	case TypeBoolAtom:
		_, ok = data.(bool)
	case TypeGUIDAtom:
		_, ok = data.(GUID)
	case TypeByteAtom, TypeCharAtom:
		_, ok = data.(byte)
	case TypeShortAtom:
		_, ok = data.(int16)
	case TypeIntAtom, TypeMonthAtom, TypeDateAtom, TypeMinuteAtom, TypeSecondAtom, TypeTimeAtom:
		_, ok = data.(int32)
	case TypeLongAtom, TypeTimestampAtom, TypeTimespanAtom:
		_, ok = data.(int64)
	case TypeRealAtom:
		_, ok = data.(float32)
	case TypeFloatAtom, TypeDatetimeAtom:
		_, ok = data.(float64)
	case TypeSymbolAtom:
		_, ok = data.(string)
	}
	if !ok {
		return nil, ErrInvalidCast.Detailf("%T as %s", data, t)
	}
	return &Value{typ: t, data: data}, nil
}

// NewNullOf returns the typed null atom of t.
func NewNullOf(t Type) (*Value, error) {
	return sentinelAtom(t, sentinelNull)
}

// NewInfOf returns the positive infinity atom of t.
func NewInfOf(t Type) (*Value, error) {
	return sentinelAtom(t, sentinelInf)
}

// NewNegInfOf returns the negative infinity atom of t.
func NewNegInfOf(t Type) (*Value, error) {
	return sentinelAtom(t, sentinelNegInf)
}

// ============================================================================
// Lists
// ============================================================================

func NewBoolList(xs []bool, attr Attribute) *Value     { return newList(TypeBoolList, attr, xs) }
func NewGUIDList(xs []GUID, attr Attribute) *Value     { return newList(TypeGUIDList, attr, xs) }
func NewByteList(xs []byte, attr Attribute) *Value     { return newList(TypeByteList, attr, xs) }
func NewShortList(xs []int16, attr Attribute) *Value   { return newList(TypeShortList, attr, xs) }
func NewIntList(xs []int32, attr Attribute) *Value     { return newList(TypeIntList, attr, xs) }
func NewLongList(xs []int64, attr Attribute) *Value    { return newList(TypeLongList, attr, xs) }
func NewRealList(xs []float32, attr Attribute) *Value  { return newList(TypeRealList, attr, xs) }
func NewFloatList(xs []float64, attr Attribute) *Value { return newList(TypeFloatList, attr, xs) }
func NewSymbolList(xs []string, attr Attribute) *Value { return newList(TypeSymbolList, attr, xs) }

// NewString returns a char list holding s.
func NewString(s string, attr Attribute) *Value { return newList(TypeString, attr, []byte(s)) }

func NewTimestampList(xs []int64, attr Attribute) *Value {
	return newList(TypeTimestampList, attr, xs)
}
func NewMonthList(xs []int32, attr Attribute) *Value { return newList(TypeMonthList, attr, xs) }
func NewDateList(xs []int32, attr Attribute) *Value  { return newList(TypeDateList, attr, xs) }
func NewDatetimeList(xs []float64, attr Attribute) *Value {
	return newList(TypeDatetimeList, attr, xs)
}
func NewTimespanList(xs []int64, attr Attribute) *Value {
	return newList(TypeTimespanList, attr, xs)
}
func NewMinuteList(xs []int32, attr Attribute) *Value { return newList(TypeMinuteList, attr, xs) }
func NewSecondList(xs []int32, attr Attribute) *Value { return newList(TypeSecondList, attr, xs) }
func NewTimeList(xs []int32, attr Attribute) *Value   { return newList(TypeTimeList, attr, xs) }

// NewCompoundList returns a heterogeneous list.
func NewCompoundList(xs ...*Value) *Value {
	if xs == nil {
		xs = []*Value{}
	}
	return &Value{typ: TypeCompoundList, data: xs}
}

// NewEmptyList returns an empty list of type t.
func NewEmptyList(t Type) (*Value, error) {
	if !t.IsList() {
		return nil, ErrInvalidOperation.Detailf("%s is not a list type", t)
	}
	return &Value{typ: t, data: emptyPayload(t, 0)}, nil
}

func newList[T any](t Type, attr Attribute, xs []T) *Value {
	if xs == nil {
		xs = []T{}
	}
	return &Value{typ: t, attr: attr, data: xs}
}

// emptyPayload allocates a zeroed payload of length n for list type t.
func emptyPayload(t Type, n int) any {
	switch t {
	case TypeBoolList:
		return make([]bool, n)
	case TypeGUIDList:
		return make([]GUID, n)
	case TypeByteList, TypeString:
		return make([]byte, n)
	case TypeShortList:
		return make([]int16, n)
	case TypeIntList, TypeMonthList, TypeDateList, TypeMinuteList, TypeSecondList, TypeTimeList:
		return make([]int32, n)
	case TypeLongList, TypeTimestampList, TypeTimespanList:
		return make([]int64, n)
	case TypeRealList:
		return make([]float32, n)
	case TypeFloatList, TypeDatetimeList:
		return make([]float64, n)
	case TypeSymbolList:
		return make([]string, n)
	default:
		return make([]*Value, n)
	}
}

// NewListOf allocates a list of type t holding n zero elements.
// The wire decoder fills the payload in place through Data.
func NewListOf(t Type, attr Attribute, n int) (*Value, error) {
	if !t.IsList() {
		return nil, ErrInvalidOperation.Detailf("%s is not a list type", t)
	}
	if n < 0 {
		return nil, ErrIndexOutOfBounds.Detailf("length %d", n)
	}
	return &Value{typ: t, attr: attr, data: emptyPayload(t, n)}, nil
}

// ============================================================================
// Dictionaries and tables
// ============================================================================

// NewDictionary builds keys!values. When both sides have a length they must match.
func NewDictionary(keys, values *Value) (*Value, error) {
	return newDict(TypeDictionary, keys, values)
}

// NewSortedDictionary builds a dictionary with sorted keys (type 127).
func NewSortedDictionary(keys, values *Value) (*Value, error) {
	d, err := newDict(TypeSortedDictionary, keys, values)
	if err != nil {
		return nil, err
	}
	d.attr = AttrSorted
	return d, nil
}

func newDict(t Type, keys, values *Value) (*Value, error) {
	if keys == nil || values == nil {
		return nil, ErrInvalidOperation.WithDetails("nil dictionary side")
	}
	kn, kok := keys.length()
	vn, vok := values.length()
	if kok && vok && kn != vn {
		return nil, ErrLengthMismatch.Detailf("keys %d, values %d", kn, vn)
	}
	return &Value{typ: t, data: &dict{keys: keys, values: values}}, nil
}

// NewTable builds a table from column names and equally long column lists.
func NewTable(columns []string, data ...*Value) (*Value, error) {
	if len(columns) != len(data) {
		return nil, ErrLengthMismatch.Detailf("%d names, %d columns", len(columns), len(data))
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return mustDict(NewSymbolList(cols, AttrNone), NewCompoundList(data...)).Flip()
}

// NewKeyedTable builds a dictionary from a key table to a value table.
func NewKeyedTable(keys, values *Value) (*Value, error) {
	if keys.typ != TypeTable || values.typ != TypeTable {
		return nil, ErrInvalidOperation.WithDetails("keyed table halves must be tables")
	}
	return NewDictionary(keys, values)
}

func mustDict(keys, values *Value) *Value {
	return &Value{typ: TypeDictionary, data: &dict{keys: keys, values: values}}
}

// Len returns the element count of a list, the entry count of a dictionary or
// the row count of a table. Atoms have length 1.
func (v *Value) Len() int {
	n, ok := v.length()
	if !ok {
		return 1
	}
	return n
}

func (v *Value) length() (int, bool) {
	switch d := v.data.(type) {
	case []bool:
		return len(d), true
	case []GUID:
		return len(d), true
	case []byte:
		return len(d), true
	case []int16:
		return len(d), true
	case []int32:
		return len(d), true
	case []int64:
		return len(d), true
	case []float32:
		return len(d), true
	case []float64:
		return len(d), true
	case []string:
		return len(d), true
	case []*Value:
		return len(d), true
	case *dict:
		return d.keys.length()
	case *Value:
		cols := d.data.(*dict).values.data.([]*Value)
		if len(cols) == 0 {
			return 0, true
		}
		return cols[0].length()
	}
	return 0, false
}

// ============================================================================
// Equality
// ============================================================================

// Equal reports deep structural equality. Floats compare by bit pattern so
// nulls are equal to themselves.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ != b.typ || a.attr != b.attr {
		return false
	}
	switch x := a.data.(type) {
	case nil:
		return b.data == nil
	case float32:
		return math.Float32bits(x) == math.Float32bits(b.data.(float32))
	case float64:
		return math.Float64bits(x) == math.Float64bits(b.data.(float64))
	case []bool:
		return sliceEqual(x, b.data.([]bool))
	case []GUID:
		return sliceEqual(x, b.data.([]GUID))
	case []byte:
		return sliceEqual(x, b.data.([]byte))
	case []int16:
		return sliceEqual(x, b.data.([]int16))
	case []int32:
		return sliceEqual(x, b.data.([]int32))
	case []int64:
		return sliceEqual(x, b.data.([]int64))
	case []string:
		return sliceEqual(x, b.data.([]string))
	case []float32:
		y := b.data.([]float32)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float32bits(x[i]) != math.Float32bits(y[i]) {
				return false
			}
		}
		return true
	case []float64:
		y := b.data.([]float64)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float64bits(x[i]) != math.Float64bits(y[i]) {
				return false
			}
		}
		return true
	case []*Value:
		y := b.data.([]*Value)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *dict:
		y := b.data.(*dict)
		return Equal(x.keys, y.keys) && Equal(x.values, y.values)
	case *Value:
		return Equal(x, b.data.(*Value))
	default:
		return a.data == b.data
	}
}

func sliceEqual[T comparable](x, y []T) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
