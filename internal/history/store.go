package history

import (
	"context"
	"time"
)

// GuestOwner is the fixed identity all exchanges are recorded under.
const GuestOwner = "guest"

// Exchange is one persisted prompt/response pair. Records are written
// exactly once, after both sides of the exchange are fully known, and are
// never mutated afterwards.
type Exchange struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// ExchangeStore is the insert-only durable store for completed exchanges.
type ExchangeStore interface {
	// Append writes a new record and assigns its monotonically increasing ID.
	Append(ctx context.Context, ex *Exchange) error

	// ListByOwner returns all records for an owner in creation order,
	// oldest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*Exchange, error)
}
