package entitlement

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qatarliving/subscriptions/pkg/lifecycle"
	"github.com/qatarliving/subscriptions/pkg/quota"
)

// Kind discriminates subscription instances from add-on instances. Both
// share state-machine and quota behavior.
type Kind string

const (
	KindSubscription Kind = "subscription"
	KindAddon        Kind = "addon"
)

// State is the full persisted state of one purchased instance. It is
// mutated only through the owning entity's turns and never deleted;
// lifecycle ends in Expired or Cancelled.
type State struct {
	ID          uuid.UUID        `json:"id"`
	UserID      string           `json:"user_id"`
	ProductCode string           `json:"product_code"`
	Kind        Kind             `json:"kind"`
	Vertical    string           `json:"vertical"`
	SubVertical string           `json:"sub_vertical,omitempty"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Status      lifecycle.Status `json:"status"`
	Quota       quota.State      `json:"quota"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Clone returns a deep copy for use as scratch state inside a turn.
func (s State) Clone() State {
	clone := s
	clone.Quota = s.Quota.Clone()
	return clone
}

// ActiveAt reports whether the instance is usable at the given time:
// status Active and the validity window not yet over.
func (s State) ActiveAt(now time.Time) bool {
	return s.Status == lifecycle.StatusActive && !now.After(s.EndDate)
}

// Validate checks the committed-state invariants.
func (s State) Validate() error {
	if s.ID == uuid.Nil {
		return errors.Join(ErrInvalidState, errors.New("id is required"))
	}
	if s.UserID == "" {
		return errors.Join(ErrInvalidState, errors.New("user id is required"))
	}
	if s.ProductCode == "" {
		return errors.Join(ErrInvalidState, errors.New("product code is required"))
	}
	if s.Kind != KindSubscription && s.Kind != KindAddon {
		return errors.Join(ErrInvalidState, errors.New("unknown kind"))
	}
	if !s.Status.Valid() {
		return errors.Join(ErrInvalidState, errors.New("unknown status"))
	}
	if s.EndDate.Before(s.StartDate) {
		return errors.Join(ErrInvalidState, errors.New("end date precedes start date"))
	}
	if !s.Quota.Check() {
		return errors.Join(ErrInvalidState, errors.New("quota counters violate budget invariant"))
	}
	return nil
}

// UsageRequest addresses one usage check or recording. Free-ads usage is
// category-scoped and must carry a Category path; every other dimension is
// flat.
type UsageRequest struct {
	Dimension quota.Dimension
	Amount    int64
	Category  *quota.CategoryPath
}
