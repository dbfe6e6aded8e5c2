package domain

import "fmt"

// Type is a wire type code. Negative codes are atoms, codes 0..19 are lists.
type Type int8

// Atom types.
const (
	TypeBoolAtom      Type = -1
	TypeGUIDAtom      Type = -2
	TypeByteAtom      Type = -4
	TypeShortAtom     Type = -5
	TypeIntAtom       Type = -6
	TypeLongAtom      Type = -7
	TypeRealAtom      Type = -8
	TypeFloatAtom     Type = -9
	TypeCharAtom      Type = -10
	TypeSymbolAtom    Type = -11
	TypeTimestampAtom Type = -12
	TypeMonthAtom     Type = -13
	TypeDateAtom      Type = -14
	TypeDatetimeAtom  Type = -15
	TypeTimespanAtom  Type = -16
	TypeMinuteAtom    Type = -17
	TypeSecondAtom    Type = -18
	TypeTimeAtom      Type = -19
)

// List types.
const (
	TypeCompoundList  Type = 0
	TypeBoolList      Type = 1
	TypeGUIDList      Type = 2
	TypeByteList      Type = 4
	TypeShortList     Type = 5
	TypeIntList       Type = 6
	TypeLongList      Type = 7
	TypeRealList      Type = 8
	TypeFloatList     Type = 9
	TypeString        Type = 10
	TypeSymbolList    Type = 11
	TypeTimestampList Type = 12
	TypeMonthList     Type = 13
	TypeDateList      Type = 14
	TypeDatetimeList  Type = 15
	TypeTimespanList  Type = 16
	TypeMinuteList    Type = 17
	TypeSecondList    Type = 18
	TypeTimeList      Type = 19
)

// Composite and special types.
const (
	TypeTable            Type = 98
	TypeDictionary       Type = 99
	TypeNull             Type = 101
	TypeSortedDictionary Type = 127
	TypeError            Type = -128
)

var typeNames = map[Type]string{
	0:  "mixed",
	1:  "boolean",
	2:  "guid",
	4:  "byte",
	5:  "short",
	6:  "int",
	7:  "long",
	8:  "real",
	9:  "float",
	10: "char",
	11: "symbol",
	12: "timestamp",
	13: "month",
	14: "date",
	15: "datetime",
	16: "timespan",
	17: "minute",
	18: "second",
	19: "time",
}

// Valid reports whether t is a type code this model can represent.
func (t Type) Valid() bool {
	switch t {
	case TypeTable, TypeDictionary, TypeSortedDictionary, TypeNull, TypeError:
		return true
	}
	abs := t
	if abs < 0 {
		abs = -abs
	}
	_, ok := typeNames[abs]
	return ok && t != 0 || t == TypeCompoundList
}

// IsAtom reports whether t is an atom type (excluding error).
func (t Type) IsAtom() bool {
	return t < 0 && t >= TypeTimeAtom && t.Valid()
}

// IsList reports whether t is a typed or compound list.
func (t Type) IsList() bool {
	return t >= TypeCompoundList && t <= TypeTimeList && t.Valid()
}

// IsTypedList reports whether t is a homogeneous list.
func (t Type) IsTypedList() bool {
	return t > TypeCompoundList && t.IsList()
}

// Elem returns the atom type of a typed list's elements.
func (t Type) Elem() Type {
	if t.IsTypedList() {
		return -t
	}
	return t
}

// List returns the list type whose elements are atoms of type t.
func (t Type) List() Type {
	if t.IsAtom() {
		return -t
	}
	return t
}

// Size returns the fixed wire width of one element, or 0 for variable width.
func (t Type) Size() int {
	switch t.Elem() {
	case TypeBoolAtom, TypeByteAtom, TypeCharAtom:
		return 1
	case TypeGUIDAtom:
		return 16
	case TypeShortAtom:
		return 2
	case TypeIntAtom, TypeRealAtom, TypeMonthAtom, TypeDateAtom, TypeMinuteAtom, TypeSecondAtom, TypeTimeAtom:
		return 4
	case TypeLongAtom, TypeFloatAtom, TypeTimestampAtom, TypeDatetimeAtom, TypeTimespanAtom:
		return 8
	default:
		return 0
	}
}

// String returns the q name of the type.
func (t Type) String() string {
	switch t {
	case TypeTable:
		return "table"
	case TypeDictionary:
		return "dictionary"
	case TypeSortedDictionary:
		return "sorted dictionary"
	case TypeNull:
		return "null"
	case TypeError:
		return "error"
	}
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", int8(t))
	}
	if t < 0 {
		return typeNames[-t]
	}
	if t == TypeCompoundList {
		return typeNames[0] + " list"
	}
	return typeNames[t] + " list"
}

// Attribute is a list-level marker asserting a structural property.
type Attribute int8

// Attributes.
const (
	AttrNone    Attribute = 0
	AttrSorted  Attribute = 1
	AttrUnique  Attribute = 2
	AttrParted  Attribute = 3
	AttrGrouped Attribute = 4
)

// Valid reports whether a is a known attribute.
func (a Attribute) Valid() bool {
	return a >= AttrNone && a <= AttrGrouped
}

// String returns the q prefix for the attribute.
func (a Attribute) String() string {
	switch a {
	case AttrSorted:
		return "`s#"
	case AttrUnique:
		return "`u#"
	case AttrParted:
		return "`p#"
	case AttrGrouped:
		return "`g#"
	default:
		return ""
	}
}

// GUID is a 16 byte identifier.
type GUID [16]byte

// String formats the GUID as 8-4-4-4-12 hex groups.
func (g GUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", g[0:4], g[4:6], g[6:8], g[8:10], g[10:16])
}
