// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"fmt"

	"github.com/db47h/hwcov/internal/arena"
	"github.com/pkg/errors"
)

// ErrDataDeleted is returned by any accessor called on a handle whose
// context has been closed.
//
var ErrDataDeleted = errors.New("coverage data has been deleted")

// An IllegalSampleError is returned when a sampled value falls into an
// illegal bin. The hit is recorded before the error is returned.
//
// Coverpoint and Covergroup are filled in as the error travels up from the
// bin.
//
type IllegalSampleError struct {
	Covergroup string
	Coverpoint string
	Bin        string
	Value      string
}

func (e *IllegalSampleError) Error() string {
	return fmt.Sprintf("Illegal sample in [%s/%s/%s] on value [%s]!", e.Covergroup, e.Coverpoint, e.Bin, e.Value)
}

// A DuplicateError is returned when registering a name twice in the same
// parent.
//
type DuplicateError struct {
	Kind   string // scope, covergroup, coverpoint, cross, bin...
	Name   string
	Parent string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already defined in %s", e.Kind, e.Name, e.Parent)
}

// A NotFoundError is returned by lookups of non-existent names.
//
type NotFoundError struct {
	Kind   string
	Name   string
	Parent string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No %s %s in %s", e.Kind, e.Name, e.Parent)
}

// deleted converts arena lookup failures into ErrDataDeleted.
func deleted(err error) error {
	if errors.Is(err, arena.ErrStale) {
		return errors.WithStack(ErrDataDeleted)
	}
	return err
}
