package userquota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qatarliving/subscriptions/pkg/entitlement"
	"github.com/qatarliving/subscriptions/pkg/quota"
)

var ErrRecordNotFound = errors.New("userquota: record not found")

// Record mirrors a subset of one instance's state for per-user lookup.
type Record struct {
	UserID        string           `json:"user_id"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	ProductCode   string           `json:"product_code"`
	Kind          entitlement.Kind `json:"kind"`
	EndDate       time.Time        `json:"end_date"`
	Quota         quota.State      `json:"quota"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// FromState builds the mirrored record for an instance state.
func FromState(s entitlement.State) Record {
	return Record{
		UserID:        s.UserID,
		TransactionID: s.ID,
		ProductCode:   s.ProductCode,
		Kind:          s.Kind,
		EndDate:       s.EndDate,
		Quota:         s.Quota.Clone(),
		UpdatedAt:     s.LastUpdated,
	}
}

// Mirror is the per-user quota view. Upsert must be safe under concurrent
// writers for the same user, since two purchases can complete at the same
// time on different entity ids.
type Mirror interface {
	Upsert(ctx context.Context, rec Record) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	Remove(ctx context.Context, userID string, transactionID uuid.UUID) error
}
