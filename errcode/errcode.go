package errcode

import "errors"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	NotReady      Code = "not_ready"

	// Wire-level failures of a two-wire bus.
	Timeout         Code = "timeout"          // clock line held low past the wait limit
	ArbitrationLost Code = "arbitration_lost" // a line did not read back what was driven
	Nack            Code = "nack"             // peer did not acknowledge a byte

	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	NoDevice   Code = "no_device"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Timeout) match a wrapped code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error, defaulting to Error.
// Joined errors report the code of their first member.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := j.Unwrap(); len(errs) > 0 {
			return Of(errs[0])
		}
	}
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Fold accumulates the errors of a multi-step operation where every step is
// executed even after a failure. Only the first error of each code is kept.
// The zero value is ready to use.
type Fold struct {
	errs []error
}

// Add records err if it is non-nil and its code has not been seen yet.
// It reports whether err was non-nil.
func (f *Fold) Add(err error) bool {
	if err == nil {
		return false
	}
	c := Of(err)
	for _, e := range f.errs {
		if Of(e) == c {
			return true
		}
	}
	f.errs = append(f.errs, err)
	return true
}

// Failed reports whether any step failed.
func (f *Fold) Failed() bool { return len(f.errs) > 0 }

// Err returns nil, the single recorded error, or all of them joined.
func (f *Fold) Err() error {
	switch len(f.errs) {
	case 0:
		return nil
	case 1:
		return f.errs[0]
	}
	return errors.Join(f.errs...)
}
