package tinyhtml

import (
	"fmt"
	"strings"
)

// TypeError reports an argument of the wrong kind: a handler that is not a
// function value, a style value of an unsupported primitive type, a nested
// wrapper passed to a constructor.
type TypeError struct {
	Method string
	Param  string
	Msg    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("tinyhtml: %s: parameter %q: %s", e.Method, e.Param, e.Msg)
}

// KindMismatchError reports that a wrapper's target sequence has the wrong
// target kind for the requested operation.
type KindMismatchError struct {
	Method   string
	Accepted []TargetKind
	Got      TargetKind
}

func (e *KindMismatchError) Error() string {
	names := make([]string, len(e.Accepted))
	for i, k := range e.Accepted {
		names[i] = k.String()
	}
	return fmt.Sprintf("tinyhtml: %s: target kind %s not accepted (accepted: %s)",
		e.Method, e.Got, strings.Join(names, ", "))
}

// CardinalityError reports an operation that requires a single target being
// invoked on a sequence of a different length.
type CardinalityError struct {
	Method string
	Got    int
	Want   int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("tinyhtml: %s: requires %d target(s), wrapper holds %d", e.Method, e.Want, e.Got)
}

// MissingTargetError reports indexed access to an empty slot.
type MissingTargetError struct {
	Method string
	Index  int
	Len    int
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("tinyhtml: %s: no target at index %d (length %d)", e.Method, e.Index, e.Len)
}

// DomainError reports a value outside its legal range: opacity not in
// [0,1], a negative length, an unknown easing or speed name.
type DomainError struct {
	Method string
	Param  string
	Msg    string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("tinyhtml: %s: parameter %q: %s", e.Method, e.Param, e.Msg)
}
