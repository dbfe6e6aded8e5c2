package domain

// Flip turns a dictionary of symbol keys to equally long column lists into a table.
func (v *Value) Flip() (*Value, error) {
	keys, values, err := v.Dictionary()
	if err != nil {
		return nil, ErrInvalidOperation.Detailf("flip %s", v.typ)
	}
	names, err := keys.SymbolList()
	if err != nil {
		return nil, ErrInvalidOperation.WithDetails("table column names must be a symbol list")
	}
	cols, err := values.CompoundList()
	if err != nil {
		return nil, ErrInvalidOperation.WithDetails("table columns must be a mixed list")
	}
	if len(names) != len(cols) {
		return nil, ErrLengthMismatch.Detailf("%d names, %d columns", len(names), len(cols))
	}
	for i, c := range cols {
		if c == nil || !c.typ.IsList() {
			return nil, ErrInvalidOperation.Detailf("column %q is not a list", names[i])
		}
		if c.Len() != cols[0].Len() {
			return nil, ErrLengthMismatch.Detailf("column %q has %d rows, want %d", names[i], c.Len(), cols[0].Len())
		}
	}
	return &Value{typ: TypeTable, data: v}, nil
}

// Unflip returns the column dictionary of a table.
func (v *Value) Unflip() (*Value, error) {
	if v.typ != TypeTable {
		return nil, ErrInvalidOperation.Detailf("unflip %s", v.typ)
	}
	return v.data.(*Value), nil
}

// Enkey splits a table into a keyed table using its first n columns as keys.
// n is clamped to the number of columns minus one.
func (v *Value) Enkey(n int) (*Value, error) {
	names, cols, err := v.Table()
	if err != nil {
		return nil, ErrInvalidOperation.Detailf("enkey %s", v.typ)
	}
	if len(names) < 2 || n < 1 {
		return nil, ErrInvalidOperation.Detailf("cannot key %d of %d columns", n, len(names))
	}
	if n > len(names)-1 {
		n = len(names) - 1
	}
	keys, err := NewTable(names[:n], cols[:n]...)
	if err != nil {
		return nil, err
	}
	values, err := NewTable(names[n:], cols[n:]...)
	if err != nil {
		return nil, err
	}
	return NewDictionary(keys, values)
}

// Unkey merges a keyed table back into a single table.
func (v *Value) Unkey() (*Value, error) {
	keys, values, err := v.Dictionary()
	if err != nil || keys.typ != TypeTable || values.typ != TypeTable {
		return nil, ErrInvalidOperation.Detailf("unkey %s", v.typ)
	}
	kn, kc, _ := keys.Table()
	vn, vc, _ := values.Table()
	names := append(append([]string{}, kn...), vn...)
	cols := append(append([]*Value{}, kc...), vc...)
	return NewTable(names, cols...)
}

// IsKeyedTable reports whether v is a dictionary from a table to a table.
func (v *Value) IsKeyedTable() bool {
	if v.typ != TypeDictionary && v.typ != TypeSortedDictionary {
		return false
	}
	d := v.data.(*dict)
	return d.keys.typ == TypeTable && d.values.typ == TypeTable
}

// Column returns the named column of a table or keyed table.
func (v *Value) Column(name string) (*Value, error) {
	if v.IsKeyedTable() {
		d := v.data.(*dict)
		if c, err := d.keys.Column(name); err == nil {
			return c, nil
		}
		return d.values.Column(name)
	}
	names, cols, err := v.Table()
	if err != nil {
		return nil, ErrInvalidOperation.Detailf("column of %s", v.typ)
	}
	for i, n := range names {
		if n == name {
			return cols[i], nil
		}
	}
	return nil, ErrNoSuchColumn.WithDetails(name)
}
