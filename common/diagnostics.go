package common

import (
	"go.uber.org/multierr"
)

// Diagnostics accumulates non-fatal problems found while processing a single
// document. Nothing recorded here stops processing.
// NOTE: not to be used concurrently, each run owns its own instance.
type Diagnostics struct {
	err error
}

// Add records err, nil values are ignored.
func (d *Diagnostics) Add(err error) {
	if d == nil || err == nil {
		return
	}
	d.err = multierr.Append(d.err, err)
}

// Err returns all recorded problems combined or nil.
func (d *Diagnostics) Err() error {
	if d == nil {
		return nil
	}
	return d.err
}

// Errors returns recorded problems in the order they were added.
func (d *Diagnostics) Errors() []error {
	if d == nil {
		return nil
	}
	return multierr.Errors(d.err)
}

func (d *Diagnostics) Len() int {
	return len(d.Errors())
}
