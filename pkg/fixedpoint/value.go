package fixedpoint

import (
	"database/sql/driver"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

const DefaultPrecision = 8

const DefaultPow = 1e8

// Value is a fixed-point decimal number scaled by 1e8.
// All prices and quantities in the engine are stored as Value so that
// repeated arithmetic does not accumulate binary float error.
type Value int64

const Zero = Value(0)

var One = NewFromInt(1)

func (v Value) Float64() float64 {
	return float64(v) / DefaultPow
}

func (v Value) Int64() int64 {
	return int64(v.Float64())
}

func (v Value) Int() int {
	return int(v.Float64())
}

func (v Value) Add(v2 Value) Value {
	return Value(int64(v) + int64(v2))
}

func (v Value) Sub(v2 Value) Value {
	return Value(int64(v) - int64(v2))
}

func (v Value) Mul(v2 Value) Value {
	return NewFromFloat(v.Float64() * v2.Float64())
}

func (v Value) MulFloat64(v2 float64) Value {
	return NewFromFloat(v.Float64() * v2)
}

func (v Value) Div(v2 Value) Value {
	return NewFromFloat(v.Float64() / v2.Float64())
}

func (v Value) DivFloat64(v2 float64) Value {
	return NewFromFloat(v.Float64() / v2)
}

func (v Value) Neg() Value {
	return -v
}

func (v Value) Abs() Value {
	if v < 0 {
		return -v
	}
	return v
}

func (v Value) Sign() int {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func (v Value) IsZero() bool {
	return v == 0
}

func (v Value) Compare(v2 Value) int {
	if v > v2 {
		return 1
	} else if v < v2 {
		return -1
	}
	return 0
}

func (v Value) String() string {
	return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
}

func (v Value) FormatString(prec int) string {
	return strconv.FormatFloat(v.Float64(), 'f', prec, 64)
}

func (v Value) FormatPercentage(prec int) string {
	return strconv.FormatFloat(v.Float64()*100.0, 'f', prec, 64) + "%"
}

func Min(a, b Value) Value {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Value) Value {
	if a > b {
		return a
	}
	return b
}

func Abs(a Value) Value {
	return a.Abs()
}

func NewFromFloat(val float64) Value {
	return Value(int64(math.Round(val * DefaultPow)))
}

func NewFromInt(val int) Value {
	return Value(int64(val) * DefaultPow)
}

func NewFromInt64(val int64) Value {
	return Value(val * DefaultPow)
}

func NewFromString(input string) (Value, error) {
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "can not parse %q as fixed-point value", input)
	}

	return NewFromFloat(v), nil
}

func MustNewFromString(input string) Value {
	v, err := NewFromString(input)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Value() (driver.Value, error) {
	return v.Float64(), nil
}

func (v *Value) Scan(src interface{}) error {
	switch d := src.(type) {
	case int64:
		*v = NewFromInt64(d)
		return nil

	case float64:
		*v = NewFromFloat(d)
		return nil

	case []byte:
		vv, err := NewFromString(string(d))
		if err != nil {
			return err
		}
		*v = vv
		return nil

	case string:
		vv, err := NewFromString(d)
		if err != nil {
			return err
		}
		*v = vv
		return nil
	}

	return errors.Errorf("fixedpoint scan error, type %T is not supported, value: %+v", src, src)
}
