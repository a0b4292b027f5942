package usage

import (
	"time"

	"minerpro-backend/internal/quota"
)

// Window is the trailing span usage is counted over. It slides with each
// request; it is not bucket-aligned, so a burst near a boundary can admit
// close to double the nominal hourly quota. Known policy looseness.
const Window = time.Hour

// Event represents one admitted request. Created exactly once per
// admission, never updated.
type Event struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Action    quota.Action `json:"action"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Decision is the outcome of an admission check. Transient, never
// persisted; handlers shape it into the wire response.
type Decision struct {
	Allowed   bool
	Tier      quota.Tier
	Action    quota.Action
	Limit     int
	Current   int
	Remaining int       // meaningful only when Allowed
	ResetAt   time.Time // meaningful only when denied
	Message   string    // meaningful only when denied
}
