package service

import (
	"errors"
	"fmt"
)

// ErrInvalidRole is returned when signing with a role other than supplier
// or customer.
var ErrInvalidRole = errors.New("invalid signer role (want supplier or customer)")

// ErrAlreadyLinked is returned when publishing a plan node that already
// carries a link to a tracked entity.
var ErrAlreadyLinked = errors.New("plan node is already published")

// BaselineLockedError reports a delete blocked by a locked baseline. The
// message names the blocking milestone so the caller can surface which
// commitment stands in the way.
type BaselineLockedError struct {
	MilestoneID   string
	MilestoneName string
}

func (e *BaselineLockedError) Error() string {
	return fmt.Sprintf("baseline for milestone %q is locked; reset it before deleting", e.MilestoneName)
}

// IsBaselineLocked reports whether err is a BaselineLockedError.
func IsBaselineLocked(err error) bool {
	var e *BaselineLockedError
	return errors.As(err, &e)
}
