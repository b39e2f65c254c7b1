// Package lifecycle implements the tracking status state machine. It is the
// sole authority on which status transitions are legal: the chain is
// RETENIDO -> CONFIRMAR_PAGO -> EN_TRANSITO -> ENTREGADO, one step at a time,
// never backwards and never skipping.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

// ErrInvalidTransition is returned when the requested target status is not the
// immediate successor of the current one.
var ErrInvalidTransition = errors.New("lifecycle: invalid status transition")

var order = map[models.Status]int{
	models.StatusRetained:       0,
	models.StatusPaymentPending: 1,
	models.StatusInTransit:      2,
	models.StatusDelivered:      3,
}

// Next returns the immediate successor of s, or false when s is terminal or
// not a valid status.
func Next(s models.Status) (models.Status, bool) {
	idx, ok := order[s]
	if !ok || idx+1 >= len(models.ValidStatuses) {
		return "", false
	}
	return models.ValidStatuses[idx+1], true
}

// Validate checks that target is the immediate successor of current.
// Skipping forward, standing still and moving backwards all fail with
// ErrInvalidTransition.
func Validate(current, target models.Status) error {
	next, ok := Next(current)
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
	}
	if target != next {
		return fmt.Errorf("%w: %s -> %s (expected %s)", ErrInvalidTransition, current, target, next)
	}
	return nil
}

// Terminal reports whether s has no successor.
func Terminal(s models.Status) bool {
	_, ok := Next(s)
	return !ok
}
