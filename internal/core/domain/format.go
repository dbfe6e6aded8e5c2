package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// String renders v in q display syntax.
func (v *Value) String() string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// listSuffix is the type letter q appends to a list or atom display.
var listSuffix = map[Type]string{
	TypeShortAtom: "h",
	TypeIntAtom:   "i",
	TypeRealAtom:  "e",
	TypeMonthAtom: "m",
}

// nullSuffix is the type letter of null and infinity atoms.
var nullSuffix = map[Type]string{
	TypeShortAtom:     "h",
	TypeIntAtom:       "i",
	TypeRealAtom:      "e",
	TypeTimestampAtom: "p",
	TypeMonthAtom:     "m",
	TypeDateAtom:      "d",
	TypeDatetimeAtom:  "z",
	TypeTimespanAtom:  "n",
	TypeMinuteAtom:    "u",
	TypeSecondAtom:    "v",
	TypeTimeAtom:      "t",
}

var emptyName = map[Type]string{
	TypeBoolList:      "boolean",
	TypeGUIDList:      "guid",
	TypeByteList:      "byte",
	TypeShortList:     "short",
	TypeIntList:       "int",
	TypeLongList:      "long",
	TypeRealList:      "real",
	TypeFloatList:     "float",
	TypeSymbolList:    "symbol",
	TypeTimestampList: "timestamp",
	TypeMonthList:     "month",
	TypeDateList:      "date",
	TypeDatetimeList:  "datetime",
	TypeTimespanList:  "timespan",
	TypeMinuteList:    "minute",
	TypeSecondList:    "second",
	TypeTimeList:      "time",
}

func writeValue(b *strings.Builder, v *Value) {
	if v == nil {
		b.WriteString("::")
		return
	}
	switch {
	case v.typ == TypeNull:
		b.WriteString("::")
	case v.typ == TypeError:
		b.WriteString("'" + v.data.(string))
	case v.typ.IsAtom():
		writeAtom(b, v)
	case v.typ.IsList():
		b.WriteString(v.attr.String())
		writeList(b, v)
	case v.typ == TypeDictionary || v.typ == TypeSortedDictionary:
		d := v.data.(*dict)
		if v.typ == TypeSortedDictionary {
			b.WriteString("`s#")
		}
		writeOperand(b, d.keys)
		b.WriteByte('!')
		writeValue(b, d.values)
	case v.typ == TypeTable:
		b.WriteByte('+')
		writeValue(b, v.data.(*Value))
	default:
		fmt.Fprintf(b, "<%s>", v.typ)
	}
}

// writeOperand parenthesizes values that would otherwise bind wrongly on the
// left of '!'.
func writeOperand(b *strings.Builder, v *Value) {
	if v.typ == TypeTable || v.typ == TypeDictionary || v.typ == TypeSortedDictionary ||
		(v.typ.IsList() && v.Len() == 1) {
		b.WriteByte('(')
		writeValue(b, v)
		b.WriteByte(')')
		return
	}
	writeValue(b, v)
}

func writeAtom(b *strings.Builder, v *Value) {
	switch v.typ {
	case TypeBoolAtom:
		if v.data.(bool) {
			b.WriteString("1b")
		} else {
			b.WriteString("0b")
		}
		return
	case TypeByteAtom:
		fmt.Fprintf(b, "0x%02x", v.data.(byte))
		return
	case TypeCharAtom:
		b.WriteString(strconv.Quote(string(v.data.(byte))))
		return
	case TypeSymbolAtom:
		b.WriteString("`" + v.data.(string))
		return
	case TypeGUIDAtom:
		b.WriteString(v.data.(GUID).String())
		return
	case TypeFloatAtom:
		s := formatElem(v.typ, v.data)
		if !strings.ContainsAny(s, ".enw") {
			s += "f"
		}
		b.WriteString(s)
		return
	}
	if v.IsNull() || v.IsInf() || v.IsNegInf() {
		b.WriteString(formatElem(v.typ, v.data) + nullSuffix[v.typ])
		return
	}
	b.WriteString(formatElem(v.typ, v.data) + listSuffix[v.typ])
}

func writeList(b *strings.Builder, v *Value) {
	n := v.Len()
	switch v.typ {
	case TypeCompoundList:
		xs := v.data.([]*Value)
		if n == 1 {
			b.WriteByte(',')
			writeValue(b, xs[0])
			return
		}
		b.WriteByte('(')
		for i, x := range xs {
			if i > 0 {
				b.WriteByte(';')
			}
			writeValue(b, x)
		}
		b.WriteByte(')')
		return
	case TypeString:
		if n == 1 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(string(v.data.([]byte))))
		return
	}

	if n == 0 {
		b.WriteString("`" + emptyName[v.typ] + "$()")
		return
	}
	if n == 1 {
		b.WriteByte(',')
	}
	switch v.typ {
	case TypeBoolList:
		for _, x := range v.data.([]bool) {
			if x {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte('b')
		return
	case TypeByteList:
		b.WriteString("0x")
		for _, x := range v.data.([]byte) {
			fmt.Fprintf(b, "%02x", x)
		}
		return
	case TypeSymbolList:
		for _, x := range v.data.([]string) {
			b.WriteString("`" + x)
		}
		return
	}

	elem := v.typ.Elem()
	allIntegral := true
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := formatElem(elem, elemAt(v.data, i))
		if strings.ContainsAny(s, ".enw") {
			allIntegral = false
		}
		b.WriteString(s)
	}
	if elem == TypeFloatAtom && allIntegral {
		b.WriteByte('f')
		return
	}
	b.WriteString(listSuffix[elem])
}

// formatElem renders one element without a type suffix.
func formatElem(t Type, x any) string {
	switch x := x.(type) {
	case GUID:
		return x.String()
	case int16:
		return intText(int64(x), int64(NullShort), int64(InfShort))
	case int32:
		if s, ok := sentinelText(int64(x), int64(NullInt), int64(InfInt)); ok {
			return s
		}
		return formatInt32(t, x)
	case int64:
		if s, ok := sentinelText(x, NullLong, InfLong); ok {
			return s
		}
		return formatInt64(t, x)
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return strings.ToUpper(floatText(f, 32))
		}
		return floatText(float64(x), 32)
	case float64:
		if t != TypeDatetimeAtom {
			return floatText(x, 64)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strings.ToUpper(floatText(x, 64))
		}
		return TimeFromDatetime(x).Format("2006.01.02T15:04:05.000")
	}
	return fmt.Sprint(x)
}

func sentinelText(x, null, inf int64) (string, bool) {
	switch x {
	case null:
		return "0N", true
	case inf:
		return "0W", true
	case -inf:
		return "-0W", true
	}
	return "", false
}

func intText(x, null, inf int64) string {
	if s, ok := sentinelText(x, null, inf); ok {
		return s
	}
	return strconv.FormatInt(x, 10)
}

func floatText(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "0n"
	case math.IsInf(f, 1):
		return "0w"
	case math.IsInf(f, -1):
		return "-0w"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func formatInt32(t Type, x int32) string {
	switch t {
	case TypeMonthAtom:
		return TimeFromMonth(x).Format("2006.01")
	case TypeDateAtom:
		return TimeFromDate(x).Format("2006.01.02")
	case TypeMinuteAtom:
		sign, m := splitSign(int64(x))
		return fmt.Sprintf("%s%02d:%02d", sign, m/60, m%60)
	case TypeSecondAtom:
		sign, s := splitSign(int64(x))
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, s/3600, s/60%60, s%60)
	case TypeTimeAtom:
		sign, ms := splitSign(int64(x))
		return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
	}
	return strconv.FormatInt(int64(x), 10)
}

func formatInt64(t Type, x int64) string {
	switch t {
	case TypeTimestampAtom:
		return TimeFromTimestamp(x).Format("2006.01.02D15:04:05.000000000")
	case TypeTimespanAtom:
		sign, ns := splitSign(x)
		day := OneDayNanos
		rem := ns % day
		return fmt.Sprintf("%s%dD%02d:%02d:%02d.%09d", sign, ns/day,
			rem/3600e9, rem/60e9%60, rem/1e9%60, rem%1e9)
	}
	return strconv.FormatInt(x, 10)
}

func splitSign(x int64) (string, int64) {
	if x < 0 {
		return "-", -x
	}
	return "", x
}
