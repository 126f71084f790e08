// README: Courier position snapshot for persistence and replay.
package location

import (
	"time"

	"ozra/internal/types"
)

type Snapshot struct {
	ID         int64
	EntityID   types.ID
	CourierID  types.ID
	Position   types.Point
	RecordedAt time.Time
}
