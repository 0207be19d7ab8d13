package axdr

import (
	"bytes"
	"fmt"
	"time"

	"github.com/metergrid/libcosem-go/base"
)

// DateTime is the 12-byte COSEM date-time: date, time, deviation in minutes
// from UTC and a clock status byte. Wildcard components are 0xff (0xffff for
// the year, -32768 for the deviation).
type DateTime struct {
	Date      Date
	Time      Time
	Deviation int16
	Status    byte
}

const DateTimeInvalidDeviation int16 = -32768

// DateTimeSize is the wire size of an encoded DateTime.
const DateTimeSize = 12

func (t *DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%02d UTC%+03d Status: %02x",
		t.Date.Year, t.Date.Month, t.Date.Day,
		t.Time.Hour, t.Time.Minute, t.Time.Second, t.Time.Hundredths, t.Deviation, t.Status)
}

// ToTime converts to time.Time; wildcard date or time components fail.
func (t *DateTime) ToTime() (tt time.Time, err error) {
	if t.Date.Year == 0xffff || t.Date.Month == 0xff || t.Date.Day == 0xff || t.Time.Hour == 0xff || t.Time.Minute == 0xff {
		return tt, base.InvalidDataf("invalid date or time")
	}
	ns := 0
	if t.Time.Hundredths != 0xff {
		ns = int(t.Time.Hundredths) * 10000000
	}
	dev := 0
	if t.Deviation != DateTimeInvalidDeviation {
		dev = int(t.Deviation)
	}
	tt = time.Date(int(t.Date.Year), time.Month(t.Date.Month), int(t.Date.Day), int(t.Time.Hour), int(t.Time.Minute), int(t.Time.Second), ns, time.FixedZone("UTC", dev*60))
	return
}

// Bytes returns the exact 12-byte wire form.
func (t *DateTime) Bytes() []byte {
	var out bytes.Buffer
	out.Grow(DateTimeSize)
	t.encodeTo(&out)
	return out.Bytes()
}

func (t *DateTime) encodeTo(dst *bytes.Buffer) {
	t.Date.encodeTo(dst)
	t.Time.encodeTo(dst)
	dst.WriteByte(byte(t.Deviation >> 8))
	dst.WriteByte(byte(t.Deviation))
	dst.WriteByte(t.Status)
}

// NewDateTimeFromTime converts a time.Time, keeping its zone offset as the
// deviation.
func NewDateTimeFromTime(src time.Time) DateTime {
	wd := byte(src.Weekday())
	if wd == 0 {
		wd = 7
	}
	_, off := src.Zone()
	return DateTime{
		Date:      Date{Year: uint16(src.Year()), Month: byte(src.Month()), Day: byte(src.Day()), DayOfWeek: wd},
		Time:      Time{Hour: byte(src.Hour()), Minute: byte(src.Minute()), Second: byte(src.Second()), Hundredths: byte(src.Nanosecond() / 10000000)},
		Deviation: int16(off / 60),
		Status:    0,
	}
}

// NewDateTimeFromSlice parses the 12-byte wire form.
func NewDateTimeFromSlice(src []byte) (val DateTime, err error) {
	if len(src) < DateTimeSize {
		err = base.InvalidDataf("too short data for datetime")
		return
	}
	return DateTime{
		Date:      Date{Year: uint16(src[0])<<8 | uint16(src[1]), Month: src[2], Day: src[3], DayOfWeek: src[4]},
		Time:      Time{Hour: src[5], Minute: src[6], Second: src[7], Hundredths: src[8]},
		Deviation: int16(src[9])<<8 | int16(src[10]),
		Status:    src[11],
	}, nil
}

// Date is the 5-byte COSEM date.
type Date struct {
	Year      uint16
	Month     byte
	Day       byte
	DayOfWeek byte
}

func (d *Date) encodeTo(dst *bytes.Buffer) {
	dst.WriteByte(byte(d.Year >> 8))
	dst.WriteByte(byte(d.Year))
	dst.WriteByte(d.Month)
	dst.WriteByte(d.Day)
	dst.WriteByte(d.DayOfWeek)
}

// Time is the 4-byte COSEM time.
type Time struct {
	Hour       byte
	Minute     byte
	Second     byte
	Hundredths byte
}

func (t *Time) encodeTo(dst *bytes.Buffer) {
	dst.WriteByte(t.Hour)
	dst.WriteByte(t.Minute)
	dst.WriteByte(t.Second)
	dst.WriteByte(t.Hundredths)
}
