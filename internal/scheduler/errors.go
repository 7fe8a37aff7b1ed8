package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/tyckorder/internal/unit"
)

// ErrInterrupted marks a checker error that abandons the whole component.
var ErrInterrupted = errors.New("checking interrupted")

// InterruptedError is returned by a checker that must abandon the component
// it is working on. Everything the component produced so far is discarded.
type InterruptedError struct {
	Unit   *unit.Unit
	Reason string
}

func (e *InterruptedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Unit, ErrInterrupted)
	}
	return fmt.Sprintf("%s: %s: %s", e.Unit, ErrInterrupted, e.Reason)
}

// Is makes errors.Is(err, ErrInterrupted) hold.
func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

// BlameError is returned by a checker that fails a unit because of other
// units. The checked unit fails and each blamed unit is treated as failed
// for propagation.
type BlameError struct {
	Units []*unit.Unit
	Err   error
}

func (e *BlameError) Error() string {
	names := make([]string, len(e.Units))
	for i, u := range e.Units {
		names[i] = u.ID()
	}
	return fmt.Sprintf("blaming %s: %v", strings.Join(names, ", "), e.Err)
}

func (e *BlameError) Unwrap() error {
	return e.Err
}
