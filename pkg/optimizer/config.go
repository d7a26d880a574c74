// Package optimizer sweeps strategy parameters over a grid and ranks the
// resulting backtests.
package optimizer

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

// SelectorConfig describes the values swept for one strategy parameter.
// Either an explicit value list or a min/max/step range is given.
type SelectorConfig struct {
	Param string `json:"param" yaml:"param"`

	Values []interface{} `json:"values,omitempty" yaml:"values,omitempty"`

	Min  fixedpoint.Value `json:"min,omitempty" yaml:"min,omitempty"`
	Max  fixedpoint.Value `json:"max,omitempty" yaml:"max,omitempty"`
	Step fixedpoint.Value `json:"step,omitempty" yaml:"step,omitempty"`
}

func (s *SelectorConfig) expand() ([]interface{}, error) {
	if len(s.Values) > 0 {
		return s.Values, nil
	}

	if s.Step.Sign() <= 0 {
		return nil, errors.Errorf("selector %q needs values or a positive step", s.Param)
	}
	if s.Max.Compare(s.Min) < 0 {
		return nil, errors.Errorf("selector %q: max is below min", s.Param)
	}

	var values []interface{}
	for v := s.Min; v.Compare(s.Max) <= 0; v = v.Add(s.Step) {
		// integral steps sweep as ints so window params decode cleanly
		if f := v.Float64(); f == float64(int64(f)) {
			values = append(values, int(f))
		} else {
			values = append(values, f)
		}
	}

	return values, nil
}

// Config is the sweep definition, usually loaded from its own YAML file next
// to the backtest config.
type Config struct {
	// Objective selects the ranking metric: netProfit, totalReturn, sharpe,
	// sortino, calmar, profitFactor or maxDrawdown.
	Objective string `json:"objective,omitempty" yaml:"objective,omitempty"`

	MaxThread int `json:"maxThread,omitempty" yaml:"maxThread,omitempty"`

	Matrix []SelectorConfig `json:"matrix" yaml:"matrix"`
}

func (c *Config) Defaults() {
	if c.Objective == "" {
		c.Objective = "netProfit"
	}

	if c.MaxThread <= 0 {
		c.MaxThread = runtime.NumCPU()
	}
}

func (c *Config) Validate() error {
	if len(c.Matrix) == 0 {
		return errors.New("matrix is empty, nothing to sweep")
	}

	for i := range c.Matrix {
		if c.Matrix[i].Param == "" {
			return errors.Errorf("matrix[%d]: param is required", i)
		}
		if _, err := c.Matrix[i].expand(); err != nil {
			return err
		}
	}

	switch c.Objective {
	case "netProfit", "totalReturn", "sharpe", "sortino", "calmar", "profitFactor", "maxDrawdown":
	default:
		return errors.Errorf("objective %q is not supported", c.Objective)
	}

	return nil
}

// LoadConfig reads a sweep config file.
func LoadConfig(path string) (*Config, error) {
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can not read sweep config %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(out, &c); err != nil {
		return nil, errors.Wrapf(err, "can not parse sweep config %s", path)
	}

	c.Defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}
