package domain

import "math"

// Integer sentinels. Negative infinity is the negated maximum, not the minimum.
const (
	NullShort   int16 = math.MinInt16
	InfShort    int16 = math.MaxInt16
	NegInfShort int16 = -math.MaxInt16

	NullInt   int32 = math.MinInt32
	InfInt    int32 = math.MaxInt32
	NegInfInt int32 = -math.MaxInt32

	NullLong   int64 = math.MinInt64
	InfLong    int64 = math.MaxInt64
	NegInfLong int64 = -math.MaxInt64
)

// Null bit patterns of the floating point types.
const (
	NullRealBits  uint32 = 0xFFC00000
	NullFloatBits uint64 = 0xFFF8000000000000
)

// Character and symbol nulls.
const (
	NullChar   byte   = ' '
	NullSymbol string = ""
)

// Floating point sentinels.
var (
	NullReal    = math.Float32frombits(NullRealBits)
	InfReal     = float32(math.Inf(1))
	NegInfReal  = float32(math.Inf(-1))
	NullFloat   = math.Float64frombits(NullFloatBits)
	InfFloat    = math.Inf(1)
	NegInfFloat = math.Inf(-1)
)

type sentinel int

const (
	sentinelNull sentinel = iota
	sentinelInf
	sentinelNegInf
)

func sentinelAtom(t Type, s sentinel) (*Value, error) {
	switch t {
	case TypeShortAtom:
		return NewShort([]int16{NullShort, InfShort, NegInfShort}[s]), nil
	case TypeIntAtom, TypeMonthAtom, TypeDateAtom, TypeMinuteAtom, TypeSecondAtom, TypeTimeAtom:
		return &Value{typ: t, data: []int32{NullInt, InfInt, NegInfInt}[s]}, nil
	case TypeLongAtom, TypeTimestampAtom, TypeTimespanAtom:
		return &Value{typ: t, data: []int64{NullLong, InfLong, NegInfLong}[s]}, nil
	case TypeRealAtom:
		return NewReal([]float32{NullReal, InfReal, NegInfReal}[s]), nil
	case TypeFloatAtom, TypeDatetimeAtom:
		return &Value{typ: t, data: []float64{NullFloat, InfFloat, NegInfFloat}[s]}, nil
	}
	if s == sentinelNull {
		switch t {
		case TypeGUIDAtom:
			return NewGUID(GUID{}), nil
		case TypeCharAtom:
			return NewChar(NullChar), nil
		case TypeSymbolAtom:
			return NewSymbol(NullSymbol), nil
		}
	}
	return nil, ErrInvalidOperation.Detailf("no such sentinel for %s", t)
}

// IsNull reports whether v is the generic null or the null of its atom type.
// Any NaN counts as a floating point null.
func (v *Value) IsNull() bool {
	switch x := v.data.(type) {
	case nil:
		return v.typ == TypeNull
	case GUID:
		return x == GUID{}
	case byte:
		return v.typ == TypeCharAtom && x == NullChar
	case int16:
		return x == NullShort
	case int32:
		return x == NullInt
	case int64:
		return x == NullLong
	case float32:
		return math.IsNaN(float64(x))
	case float64:
		return math.IsNaN(x)
	case string:
		return v.typ == TypeSymbolAtom && x == NullSymbol
	}
	return false
}

// IsInf reports whether v is the positive infinity of its atom type.
func (v *Value) IsInf() bool {
	switch x := v.data.(type) {
	case int16:
		return x == InfShort
	case int32:
		return x == InfInt
	case int64:
		return x == InfLong
	case float32:
		return math.IsInf(float64(x), 1)
	case float64:
		return math.IsInf(x, 1)
	}
	return false
}

// IsNegInf reports whether v is the negative infinity of its atom type.
func (v *Value) IsNegInf() bool {
	switch x := v.data.(type) {
	case int16:
		return x == NegInfShort
	case int32:
		return x == NegInfInt
	case int64:
		return x == NegInfLong
	case float32:
		return math.IsInf(float64(x), -1)
	case float64:
		return math.IsInf(x, -1)
	}
	return false
}
