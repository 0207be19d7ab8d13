package axdr

import (
	"bytes"
	"testing"
	"time"
)

func TestDateTimeBytes(t *testing.T) {
	dt := DateTime{
		Date:      Date{Year: 2024, Month: 12, Day: 31, DayOfWeek: 2},
		Time:      Time{Hour: 23, Minute: 45, Second: 6, Hundredths: 50},
		Deviation: 60,
		Status:    0x80,
	}
	b := dt.Bytes()
	if len(b) != DateTimeSize {
		t.Fatalf("len = %d", len(b))
	}
	want := []byte{0x07, 0xe8, 12, 31, 2, 23, 45, 6, 50, 0x00, 0x3c, 0x80}
	if !bytes.Equal(b, want) {
		t.Fatalf("bytes = % 02x, want % 02x", b, want)
	}
	back, err := NewDateTimeFromSlice(b)
	if err != nil {
		t.Fatalf("from slice: %v", err)
	}
	if back != dt {
		t.Errorf("round-trip = %+v", back)
	}
}

func TestDateTimeFromSliceShort(t *testing.T) {
	if _, err := NewDateTimeFromSlice(make([]byte, 11)); err == nil {
		t.Fatal("short slice did not fail")
	}
}

func TestDateTimeTimeConversion(t *testing.T) {
	src := time.Date(2023, 6, 15, 8, 30, 0, 250000000, time.FixedZone("CEST", 2*3600))
	dt := NewDateTimeFromTime(src)
	if dt.Date.Year != 2023 || dt.Date.DayOfWeek != 4 || dt.Deviation != 120 {
		t.Fatalf("converted %+v", dt)
	}
	if dt.Time.Hundredths != 25 {
		t.Errorf("hundredths = %d", dt.Time.Hundredths)
	}
	back, err := dt.ToTime()
	if err != nil {
		t.Fatalf("to time: %v", err)
	}
	if !back.Equal(src) {
		t.Errorf("round-trip = %v, want %v", back, src)
	}
}

func TestDateTimeSundayWeekday(t *testing.T) {
	src := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) // a Sunday
	if dt := NewDateTimeFromTime(src); dt.Date.DayOfWeek != 7 {
		t.Errorf("day of week = %d, want 7", dt.Date.DayOfWeek)
	}
}

func TestDateTimeWildcards(t *testing.T) {
	dt := DateTime{
		Date:      Date{Year: 0xffff, Month: 0xff, Day: 0xff, DayOfWeek: 0xff},
		Time:      Time{Hour: 0xff, Minute: 0xff, Second: 0xff, Hundredths: 0xff},
		Deviation: DateTimeInvalidDeviation,
	}
	if _, err := dt.ToTime(); err == nil {
		t.Fatal("wildcard datetime converted")
	}
	dt2 := DateTime{
		Date:      Date{Year: 2024, Month: 1, Day: 2, DayOfWeek: 2},
		Time:      Time{Hour: 3, Minute: 4, Second: 5, Hundredths: 0xff},
		Deviation: DateTimeInvalidDeviation,
	}
	back, err := dt2.ToTime()
	if err != nil {
		t.Fatalf("to time: %v", err)
	}
	if back.Nanosecond() != 0 {
		t.Errorf("wildcard hundredths produced %d ns", back.Nanosecond())
	}
	_, off := back.Zone()
	if off != 0 {
		t.Errorf("invalid deviation produced offset %d", off)
	}
}
