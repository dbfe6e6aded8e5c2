package domain

import (
	"math"
	"time"
)

// Epoch constants. The IPC epoch is 2000.01.01 UTC.
const (
	// KDBDayOffset is the number of days from 1970.01.01 to 2000.01.01.
	KDBDayOffset = 10957
	// KDBMonthOffset is the number of months from 1970.01 to 2000.01.
	KDBMonthOffset = 360
	// KDBTimestampOffset is the number of nanoseconds from 1970.01.01 to 2000.01.01.
	KDBTimestampOffset int64 = 946684800000000000

	OneDayNanos  int64 = 86400000000000
	OneDayMillis int64 = 86400000
)

var kdbEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimestampFromTime returns nanoseconds since the epoch.
func TimestampFromTime(t time.Time) int64 {
	if t.IsZero() {
		return NullLong
	}
	return t.UnixNano() - KDBTimestampOffset
}

// TimeFromTimestamp is the inverse of TimestampFromTime. Null maps to the zero time.
func TimeFromTimestamp(n int64) time.Time {
	if n == NullLong {
		return time.Time{}
	}
	return kdbEpoch.Add(time.Duration(n))
}

// MonthFromTime returns months since 2000.01.
func MonthFromTime(t time.Time) int32 {
	if t.IsZero() {
		return NullInt
	}
	t = t.UTC()
	return int32((t.Year()-2000)*12 + int(t.Month()) - 1)
}

// TimeFromMonth returns the first instant of the month n months after 2000.01.
func TimeFromMonth(n int32) time.Time {
	if n == NullInt {
		return time.Time{}
	}
	y := floorDiv(int64(n), 12)
	m := int64(n) - y*12
	return time.Date(2000+int(y), time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
}

// DateFromTime returns whole days since 2000.01.01.
func DateFromTime(t time.Time) int32 {
	if t.IsZero() {
		return NullInt
	}
	return int32(floorDiv(t.Unix(), 86400) - KDBDayOffset)
}

// TimeFromDate returns midnight UTC of the day n days after 2000.01.01.
func TimeFromDate(n int32) time.Time {
	if n == NullInt {
		return time.Time{}
	}
	return time.Unix((int64(n)+KDBDayOffset)*86400, 0).UTC()
}

// DatetimeFromTime returns fractional days since 2000.01.01 at millisecond precision.
func DatetimeFromTime(t time.Time) float64 {
	if t.IsZero() {
		return NullFloat
	}
	return float64(t.UnixMilli())/float64(OneDayMillis) - KDBDayOffset
}

// TimeFromDatetime is the inverse of DatetimeFromTime, rounded to the millisecond.
func TimeFromDatetime(f float64) time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}
	}
	ms := math.Round((f + KDBDayOffset) * float64(OneDayMillis))
	return time.UnixMilli(int64(ms)).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TimestampTime returns the timestamp atom as a time.Time.
func (v *Value) TimestampTime() (time.Time, error) {
	n, err := v.Timestamp()
	if err != nil {
		return time.Time{}, err
	}
	return TimeFromTimestamp(n), nil
}

// DateTime returns the date atom as midnight UTC.
func (v *Value) DateTime() (time.Time, error) {
	n, err := v.Date()
	if err != nil {
		return time.Time{}, err
	}
	return TimeFromDate(n), nil
}

// MonthTime returns the month atom as the first day of the month.
func (v *Value) MonthTime() (time.Time, error) {
	n, err := v.Month()
	if err != nil {
		return time.Time{}, err
	}
	return TimeFromMonth(n), nil
}

// DatetimeTime returns the datetime atom as a time.Time.
func (v *Value) DatetimeTime() (time.Time, error) {
	f, err := v.Datetime()
	if err != nil {
		return time.Time{}, err
	}
	return TimeFromDatetime(f), nil
}

// Duration returns timespan, minute, second and time atoms as a time.Duration.
func (v *Value) Duration() (time.Duration, error) {
	switch v.typ {
	case TypeTimespanAtom:
		return time.Duration(v.data.(int64)), nil
	case TypeMinuteAtom:
		return time.Duration(v.data.(int32)) * time.Minute, nil
	case TypeSecondAtom:
		return time.Duration(v.data.(int32)) * time.Second, nil
	case TypeTimeAtom:
		return time.Duration(v.data.(int32)) * time.Millisecond, nil
	}
	return 0, ErrInvalidCast.Detailf("%s is not a duration", v.typ)
}
