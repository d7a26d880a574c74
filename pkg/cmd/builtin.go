package cmd

// import the built-in strategies
import (
	_ "github.com/tvlab/tvlab/pkg/strategy/channel"
	_ "github.com/tvlab/tvlab/pkg/strategy/smacross"
)
