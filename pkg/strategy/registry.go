package strategy

import (
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var registry = make(map[string]func() Strategy)

// Register registers a strategy factory under its ID. Strategies call this
// from their package init.
func Register(id string, factory func() Strategy) {
	if _, exists := registry[id]; exists {
		panic("strategy " + id + " is already registered")
	}
	registry[id] = factory
}

// New builds a registered strategy and decodes params into it.
func New(id string, params map[string]interface{}) (Strategy, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, errors.Errorf("strategy %q is not registered", id)
	}

	s := factory()
	if len(params) > 0 {
		out, err := yaml.Marshal(params)
		if err != nil {
			return nil, errors.Wrapf(err, "can not encode params of strategy %q", id)
		}
		if err := yaml.Unmarshal(out, s); err != nil {
			return nil, errors.Wrapf(err, "can not decode params of strategy %q", id)
		}
	}

	if d, ok := s.(Defaulter); ok {
		d.Defaults()
	}

	if v, ok := s.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, errors.Wrapf(err, "strategy %q", id)
		}
	}

	return s, nil
}

// Registered returns the sorted IDs of all registered strategies.
func Registered() (ids []string) {
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
