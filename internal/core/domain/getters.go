package domain

// Typed getters return ErrInvalidCast when the value has another type.
// List getters return the backing slice; mutating it mutates the Value.

func atom[T any](v *Value, t Type) (T, error) {
	var zero T
	if v.typ != t {
		return zero, ErrInvalidCast.Detailf("%s is not %s", v.typ, t)
	}
	return v.data.(T), nil
}

func (v *Value) Bool() (bool, error)       { return atom[bool](v, TypeBoolAtom) }
func (v *Value) GUID() (GUID, error)       { return atom[GUID](v, TypeGUIDAtom) }
func (v *Value) Byte() (byte, error)       { return atom[byte](v, TypeByteAtom) }
func (v *Value) Short() (int16, error)     { return atom[int16](v, TypeShortAtom) }
func (v *Value) Int() (int32, error)       { return atom[int32](v, TypeIntAtom) }
func (v *Value) Long() (int64, error)      { return atom[int64](v, TypeLongAtom) }
func (v *Value) Real() (float32, error)    { return atom[float32](v, TypeRealAtom) }
func (v *Value) Float() (float64, error)   { return atom[float64](v, TypeFloatAtom) }
func (v *Value) Char() (byte, error)       { return atom[byte](v, TypeCharAtom) }
func (v *Value) Symbol() (string, error)   { return atom[string](v, TypeSymbolAtom) }
func (v *Value) Timestamp() (int64, error) { return atom[int64](v, TypeTimestampAtom) }
func (v *Value) Month() (int32, error)     { return atom[int32](v, TypeMonthAtom) }
func (v *Value) Date() (int32, error)      { return atom[int32](v, TypeDateAtom) }
func (v *Value) Datetime() (float64, error) {
	return atom[float64](v, TypeDatetimeAtom)
}
func (v *Value) Timespan() (int64, error) { return atom[int64](v, TypeTimespanAtom) }
func (v *Value) Minute() (int32, error)   { return atom[int32](v, TypeMinuteAtom) }
func (v *Value) Second() (int32, error)   { return atom[int32](v, TypeSecondAtom) }
func (v *Value) Time() (int32, error)     { return atom[int32](v, TypeTimeAtom) }

// ErrorText returns the message of an error value.
func (v *Value) ErrorText() (string, error) { return atom[string](v, TypeError) }

// Text returns a char list as a Go string.
func (v *Value) Text() (string, error) {
	b, err := atom[[]byte](v, TypeString)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v *Value) BoolList() ([]bool, error)       { return atom[[]bool](v, TypeBoolList) }
func (v *Value) GUIDList() ([]GUID, error)       { return atom[[]GUID](v, TypeGUIDList) }
func (v *Value) ByteList() ([]byte, error)       { return atom[[]byte](v, TypeByteList) }
func (v *Value) ShortList() ([]int16, error)     { return atom[[]int16](v, TypeShortList) }
func (v *Value) IntList() ([]int32, error)       { return atom[[]int32](v, TypeIntList) }
func (v *Value) LongList() ([]int64, error)      { return atom[[]int64](v, TypeLongList) }
func (v *Value) RealList() ([]float32, error)    { return atom[[]float32](v, TypeRealList) }
func (v *Value) FloatList() ([]float64, error)   { return atom[[]float64](v, TypeFloatList) }
func (v *Value) CharList() ([]byte, error)       { return atom[[]byte](v, TypeString) }
func (v *Value) SymbolList() ([]string, error)   { return atom[[]string](v, TypeSymbolList) }
func (v *Value) TimestampList() ([]int64, error) { return atom[[]int64](v, TypeTimestampList) }
func (v *Value) MonthList() ([]int32, error)     { return atom[[]int32](v, TypeMonthList) }
func (v *Value) DateList() ([]int32, error)      { return atom[[]int32](v, TypeDateList) }
func (v *Value) DatetimeList() ([]float64, error) {
	return atom[[]float64](v, TypeDatetimeList)
}
func (v *Value) TimespanList() ([]int64, error) { return atom[[]int64](v, TypeTimespanList) }
func (v *Value) MinuteList() ([]int32, error)   { return atom[[]int32](v, TypeMinuteList) }
func (v *Value) SecondList() ([]int32, error)   { return atom[[]int32](v, TypeSecondList) }
func (v *Value) TimeList() ([]int32, error)     { return atom[[]int32](v, TypeTimeList) }

// CompoundList returns the elements of a compound list.
func (v *Value) CompoundList() ([]*Value, error) {
	return atom[[]*Value](v, TypeCompoundList)
}

// Dictionary returns the keys and values of a dictionary or sorted dictionary.
func (v *Value) Dictionary() (keys, values *Value, err error) {
	if v.typ != TypeDictionary && v.typ != TypeSortedDictionary {
		return nil, nil, ErrInvalidCast.Detailf("%s is not a dictionary", v.typ)
	}
	d := v.data.(*dict)
	return d.keys, d.values, nil
}

// Table returns the column names and the column lists of a table.
func (v *Value) Table() (columns []string, data []*Value, err error) {
	if v.typ != TypeTable {
		return nil, nil, ErrInvalidCast.Detailf("%s is not a table", v.typ)
	}
	d := v.data.(*Value).data.(*dict)
	return d.keys.data.([]string), d.values.data.([]*Value), nil
}

// Index returns element i of a list as a Value.
func (v *Value) Index(i int) (*Value, error) {
	if !v.typ.IsList() {
		return nil, ErrInvalidOperation.Detailf("index into %s", v.typ)
	}
	if i < 0 || i >= v.Len() {
		return nil, ErrIndexOutOfBounds.Detailf("index %d, length %d", i, v.Len())
	}
	if xs, ok := v.data.([]*Value); ok {
		return xs[i], nil
	}
	return &Value{typ: v.typ.Elem(), data: elemAt(v.data, i)}, nil
}

func elemAt(data any, i int) any {
	switch xs := data.(type) {
	case []bool:
		return xs[i]
	case []GUID:
		return xs[i]
	case []byte:
		return xs[i]
	case []int16:
		return xs[i]
	case []int32:
		return xs[i]
	case []int64:
		return xs[i]
	case []float32:
		return xs[i]
	case []float64:
		return xs[i]
	case []string:
		return xs[i]
	}
	return nil
}
