package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Time wraps time.Time so that klines and orders can round-trip through
// JSON and the sql driver with a single type.
type Time time.Time

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixNano() / int64(time.Millisecond)
}

func (t Time) After(t2 Time) bool {
	return time.Time(t).After(time.Time(t2))
}

func (t Time) Before(t2 Time) bool {
	return time.Time(t).Before(time.Time(t2))
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) String() string {
	return time.Time(t).String()
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339Nano) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s = string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("can not parse %s as time", s)
	}

	tt, err := time.Parse(time.RFC3339Nano, s[1:len(s)-1])
	if err != nil {
		return err
	}

	*t = Time(tt)
	return nil
}

func (t Time) Value() (driver.Value, error) {
	return time.Time(t), nil
}

func (t *Time) Scan(src interface{}) error {
	switch d := src.(type) {
	case time.Time:
		*t = Time(d)
		return nil

	case string:
		// sqlite stores timestamps as text
		tt, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", d)
		if err != nil {
			tt, err = time.Parse(time.RFC3339Nano, d)
		}
		if err != nil {
			return err
		}
		*t = Time(tt)
		return nil

	case []byte:
		return t.Scan(string(d))

	case int64:
		*t = Time(time.Unix(d, 0))
		return nil
	}

	return fmt.Errorf("time scan error, type %T is not supported, value: %+v", src, src)
}
