// README: Structured failure taxonomy shared by lifecycle and assignment.
package lifecycle

import (
	"errors"

	"ozra/internal/modules/entity"
)

var (
	// ErrNotFound: unknown entity id.
	ErrNotFound = entity.ErrNotFound
	// ErrInvalidTransition: target status is not reachable from the
	// current one. Never coerced into a no-op.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized: actor lacks the role required for the edge.
	ErrUnauthorized = errors.New("actor not authorized for transition")
	// ErrInsufficientCapacity: requested seats exceed availability.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	// ErrAlreadyAssigned: exclusive assignment already taken, or the
	// entity left the assignable state.
	ErrAlreadyAssigned = errors.New("entity already assigned")
	// ErrConflict: version moved under a concurrent mutation; retry is safe.
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrBadRequest: request is structurally invalid.
	ErrBadRequest = errors.New("bad request")
)
