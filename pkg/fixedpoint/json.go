package fixedpoint

import (
	"encoding/json"

	"github.com/pkg/errors"
)

func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var a interface{}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	switch d := a.(type) {
	case float64:
		*v = NewFromFloat(d)

	case string:
		nv, err := NewFromString(d)
		if err != nil {
			return err
		}
		*v = nv

	default:
		return errors.Errorf("unsupported type for fixed-point value: %T %v", d, d)
	}

	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	return v.Float64(), nil
}

func (v *Value) UnmarshalYAML(unmarshal func(a interface{}) error) (err error) {
	var f float64
	if err = unmarshal(&f); err == nil {
		*v = NewFromFloat(f)
		return nil
	}

	var s string
	if err = unmarshal(&s); err == nil {
		nv, err2 := NewFromString(s)
		if err2 != nil {
			return err2
		}
		*v = nv
		return nil
	}

	return err
}
