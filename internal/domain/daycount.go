package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UnboundedSentinel is how an unbounded day count is serialized to JSON for
// existing dashboards. In SQL the unbounded case is NULL.
const UnboundedSentinel = 999

// DayCount is either a concrete number of days or "unbounded" (never used,
// no measurable usage). The zero value is zero days.
type DayCount struct {
	days      int
	unbounded bool
}

func Days(n int) DayCount {
	return DayCount{days: n}
}

func Unbounded() DayCount {
	return DayCount{unbounded: true}
}

func (d DayCount) IsUnbounded() bool {
	return d.unbounded
}

// Get returns the day count and false when the count is unbounded.
func (d DayCount) Get() (int, bool) {
	if d.unbounded {
		return 0, false
	}
	return d.days, true
}

// Sentinel returns the 999-encoded integer form used on the JSON wire.
func (d DayCount) Sentinel() int {
	if d.unbounded {
		return UnboundedSentinel
	}
	return d.days
}

func (d DayCount) String() string {
	if d.unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", d.days)
}

func (d DayCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Sentinel())
}

// UnmarshalJSON reads the dashboard form: null or exactly 999 is unbounded,
// every other integer is a day count.
func (d *DayCount) UnmarshalJSON(data []byte) error {
	var n *int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode day count: %w", err)
	}
	if n == nil || *n == UnboundedSentinel {
		*d = Unbounded()
		return nil
	}
	*d = Days(*n)
	return nil
}

// Value stores unbounded as NULL so every integer column value is a real
// day count.
func (d DayCount) Value() (driver.Value, error) {
	if d.unbounded {
		return nil, nil
	}
	return int64(d.days), nil
}

func (d *DayCount) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*d = Days(int(v))
	case int32:
		*d = Days(int(v))
	case nil:
		*d = Unbounded()
	default:
		return fmt.Errorf("cannot scan %T into DayCount", src)
	}
	return nil
}

// Date is a calendar date without a time-of-day component.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to midnight in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

func (d *Date) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
