package hub

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch/automation"
)

var (
	ErrUnknownControl   = errors.New("unknown control")
	ErrInvalidCurve     = automation.ErrInvalidCurve
	ErrInvalidEntry     = errors.New("invalid script entry")
	ErrInvalidValue     = errors.New("invalid value")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidSlot      = errors.New("invalid snapshot slot")
	ErrBindingConflict  = errors.New("binding conflict")
	ErrStaleMapping     = errors.New("stale mapping")
	ErrUnknownCommand   = errors.New("unknown command")
)

type (
	// LoadError tells why a script entry was rejected or only partially
	// loaded. The control, if any, falls back to its declared default.
	LoadError struct {
		Control string
		Err     error
	}

	// LoadErrors collects all problems of one script load. A nil LoadErrors
	// means the script loaded cleanly.
	LoadErrors []LoadError
)

func (e LoadError) Error() string { return e.Control + ": " + e.Err.Error() }
func (e LoadError) Unwrap() error { return e.Err }

func (l LoadErrors) Error() string {
	s := make([]string, len(l))
	for i, e := range l {
		s[i] = e.Error()
	}
	return strings.Join(s, "; ")
}

// Err returns nil if there were no load errors, l otherwise.
func (l LoadErrors) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l *LoadErrors) add(control string, err error) {
	*l = append(*l, LoadError{Control: control, Err: err})
}
