package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid calendar date")

const DateLayout = "2006-01-02"

// InvalidDateError reports a value that is not a real calendar date.
// It matches ErrInvalidDate through errors.Is.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", e.Value)
}

func (e *InvalidDateError) Is(target error) bool {
	return target == ErrInvalidDate
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// Date is a calendar date without time-of-day. The zero value is not a valid date.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. For timestamps the
// calendar date is taken in the timestamp's own offset.
func ParseDate(s string) (Date, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return Date{}, &InvalidDateError{Value: s}
	}

	t, err := time.Parse(DateLayout, value)
	if err == nil {
		return DateOf(t), nil
	}

	ts, tsErr := time.Parse(time.RFC3339, value)
	if tsErr == nil {
		return DateOf(ts), nil
	}

	return Date{}, &InvalidDateError{Value: s, Err: err}
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// ISOWeek returns the ISO 8601 week-numbering year and week.
func (d Date) ISOWeek() (year, week int) { return d.t.ISOWeek() }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &InvalidDateError{Value: string(data), Err: err}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("domain: cannot scan %T into Date", src)
}
