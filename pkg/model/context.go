package model

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrNumberOutOfRange = goerr.New("number out of range")
	ErrInvalidPersona   = goerr.New("invalid persona")
)

// Context carries the per-request generation parameters. It is immutable
// for the lifetime of one generation call.
type Context struct {
	NumberA        int
	NumberB        int
	Persona        Persona
	SituationalTag string
}

// Validate rejects out-of-range numbers and unknown personas at the
// boundary, before the pipeline is entered.
func (c Context) Validate() error {
	if c.NumberA < 1 || c.NumberA > 9 {
		return goerr.Wrap(ErrNumberOutOfRange, "numberA must be in [1,9]", goerr.V("numberA", c.NumberA))
	}
	if c.NumberB < 1 || c.NumberB > 9 {
		return goerr.Wrap(ErrNumberOutOfRange, "numberB must be in [1,9]", goerr.V("numberB", c.NumberB))
	}
	if err := c.Persona.Validate(); err != nil {
		return err
	}
	return nil
}

// PairKey returns the canonical key for the number pair, used by the
// fallback bank and the score cache. (3,7) and (7,3) share a key.
func (c Context) PairKey() string {
	a, b := c.NumberA, c.NumberB
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}
