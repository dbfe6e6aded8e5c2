package domain

// Push appends x to a list. See Insert for accepted element forms.
func (v *Value) Push(x any) error {
	if !v.typ.IsList() {
		return ErrInvalidOperation.Detailf("push onto %s", v.typ)
	}
	return v.Insert(v.Len(), x)
}

// Insert places x before index i of a list; i == Len appends.
// A compound list takes any *Value. A typed list takes an atom *Value of its
// element type or a raw Go value of the storage type (int64 for a long list).
func (v *Value) Insert(i int, x any) error {
	if !v.typ.IsList() {
		return ErrInvalidOperation.Detailf("insert into %s", v.typ)
	}
	if n := v.Len(); i < 0 || i > n {
		return ErrIndexOutOfBounds.Detailf("index %d, length %d", i, n)
	}
	if v.typ == TypeCompoundList {
		e, ok := x.(*Value)
		if !ok || e == nil {
			return ErrInsertWrongElement.Detailf("%T into mixed list", x)
		}
		if reaches(e, v) {
			return ErrInvalidOperation.Detailf("%s cannot contain itself", v.typ)
		}
		v.data = insertAt(v.data.([]*Value), i, e)
		return nil
	}

	raw := x
	if e, ok := x.(*Value); ok {
		if e == nil || e.typ != v.typ.Elem() {
			return ErrInsertWrongElement.Detailf("%s into %s", typeOf(e), v.typ)
		}
		raw = e.data
	}

	var ok bool
	switch xs := v.data.(type) {
	case []bool:
		v.data, ok = insertRaw(xs, i, raw)
	case []GUID:
		v.data, ok = insertRaw(xs, i, raw)
	case []byte:
		v.data, ok = insertRaw(xs, i, raw)
	case []int16:
		v.data, ok = insertRaw(xs, i, raw)
	case []int32:
		v.data, ok = insertRaw(xs, i, raw)
	case []int64:
		v.data, ok = insertRaw(xs, i, raw)
	case []float32:
		v.data, ok = insertRaw(xs, i, raw)
	case []float64:
		v.data, ok = insertRaw(xs, i, raw)
	case []string:
		v.data, ok = insertRaw(xs, i, raw)
	}
	if !ok {
		return ErrInsertWrongElement.Detailf("%T into %s", raw, v.typ)
	}
	return nil
}

// Pop removes and returns the last element of a list.
func (v *Value) Pop() (*Value, error) {
	if !v.typ.IsList() {
		return nil, ErrInvalidOperation.Detailf("pop from %s", v.typ)
	}
	if v.Len() == 0 {
		return nil, ErrPopFromEmptyList
	}
	return v.Remove(v.Len() - 1)
}

// Remove deletes and returns element i of a list.
func (v *Value) Remove(i int) (*Value, error) {
	if !v.typ.IsList() {
		return nil, ErrInvalidOperation.Detailf("remove from %s", v.typ)
	}
	if v.Len() == 0 {
		return nil, ErrPopFromEmptyList
	}
	elem, err := v.Index(i)
	if err != nil {
		return nil, err
	}
	switch xs := v.data.(type) {
	case []bool:
		v.data = cut(xs, i)
	case []GUID:
		v.data = cut(xs, i)
	case []byte:
		v.data = cut(xs, i)
	case []int16:
		v.data = cut(xs, i)
	case []int32:
		v.data = cut(xs, i)
	case []int64:
		v.data = cut(xs, i)
	case []float32:
		v.data = cut(xs, i)
	case []float64:
		v.data = cut(xs, i)
	case []string:
		v.data = cut(xs, i)
	case []*Value:
		v.data = cut(xs, i)
	}
	return elem, nil
}

// PushPair appends a key and a value to a dictionary. The dictionary is left
// unchanged when either side rejects its element.
func (v *Value) PushPair(key, value any) error {
	keys, values, err := v.Dictionary()
	if err != nil {
		return ErrInvalidOperation.Detailf("push pair onto %s", v.typ)
	}
	if err := keys.Push(key); err != nil {
		return err
	}
	if err := values.Push(value); err != nil {
		_, _ = keys.Pop()
		return err
	}
	return nil
}

// PopPair removes and returns the last key and value of a dictionary.
func (v *Value) PopPair() (key, value *Value, err error) {
	keys, values, err := v.Dictionary()
	if err != nil {
		return nil, nil, ErrInvalidOperation.Detailf("pop pair from %s", v.typ)
	}
	if key, err = keys.Pop(); err != nil {
		return nil, nil, err
	}
	if value, err = values.Pop(); err != nil {
		_ = keys.Push(key)
		return nil, nil, err
	}
	return key, value, nil
}

// reaches reports whether target is from or one of its descendants.
func reaches(from, target *Value) bool {
	if from == nil {
		return false
	}
	if from == target {
		return true
	}
	switch d := from.data.(type) {
	case []*Value:
		for _, x := range d {
			if reaches(x, target) {
				return true
			}
		}
	case *dict:
		return reaches(d.keys, target) || reaches(d.values, target)
	case *Value:
		return reaches(d, target)
	}
	return false
}

func insertAt[T any](xs []T, i int, x T) []T {
	var zero T
	xs = append(xs, zero)
	copy(xs[i+1:], xs[i:])
	xs[i] = x
	return xs
}

func insertRaw[T any](xs []T, i int, raw any) ([]T, bool) {
	x, ok := raw.(T)
	if !ok {
		return xs, false
	}
	return insertAt(xs, i, x), true
}

func cut[T any](xs []T, i int) []T {
	return append(xs[:i], xs[i+1:]...)
}

func typeOf(v *Value) string {
	if v == nil {
		return "nil"
	}
	return v.typ.String()
}
