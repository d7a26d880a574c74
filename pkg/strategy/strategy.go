// Package strategy defines the bar-driven strategy API on top of the broker
// emulator and the registry the built-in strategies register themselves into.
package strategy

// Strategy is a trading strategy driven by closed bars. OnBar is called once
// per bar after the broker has processed it; orders placed inside OnBar become
// active on the next bar open.
type Strategy interface {
	ID() string

	// Warmup is the number of bars consumed before OnBar is called.
	Warmup() int

	OnBar(ctx *Context)
}

// Defaulter strategies fill in zero-valued parameters before a run.
type Defaulter interface {
	Defaults()
}

// Validator strategies verify their parameters before a run.
type Validator interface {
	Validate() error
}
