package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationTask records a provider assistant that was created without a
// local shadow and still has to be removed at the provider.
type ReconciliationTask struct {
	ID         uuid.UUID  `json:"id"`
	ExternalID string     `json:"externalId"`
	OwnerID    uuid.UUID  `json:"ownerId"`
	Reason     string     `json:"reason"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"lastError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}
