package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/qatarliving/subscriptions/pkg/quota"
)

// ProductType discriminates how a product is purchased and budgeted.
type ProductType string

const (
	TypeSubscription ProductType = "subscription"
	TypeAddon        ProductType = "addon"
	TypeFree         ProductType = "free"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, 10.99 QAR is Amount: 1099, Currency: "QAR".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"` // ISO 4217 code
}

// CategoryQuota binds a free-ads budget to a (category, l1, l2) path.
// Empty L1/L2 scope the budget to the broader level.
type CategoryQuota struct {
	Category  string `json:"category" yaml:"category"`
	L1        string `json:"l1_category,omitempty" yaml:"l1_category,omitempty"`
	L2        string `json:"l2_category,omitempty" yaml:"l2_category,omitempty"`
	AdsBudget int64  `json:"ads_budget" yaml:"ads_budget"`
}

// Constraints is the budget template copied into the quota state of every
// purchase of the product.
type Constraints struct {
	AdsBudget           int64           `json:"ads_budget" yaml:"ads_budget"`
	FeaturedBudget      int64           `json:"featured_budget" yaml:"featured_budget"`
	PromotedBudget      int64           `json:"promoted_budget" yaml:"promoted_budget"`
	RefreshBudgetPerDay int64           `json:"refresh_budget_per_day" yaml:"refresh_budget_per_day"`
	CategoryQuotas      []CategoryQuota `json:"category_quotas,omitempty" yaml:"category_quotas,omitempty"`
}

// ToQuotaState seeds a fresh quota state from the template.
func (c Constraints) ToQuotaState() quota.State {
	allotted := map[quota.Dimension]int64{
		quota.DimensionAds:      c.AdsBudget,
		quota.DimensionFeatured: c.FeaturedBudget,
		quota.DimensionPromoted: c.PromotedBudget,
		quota.DimensionRefresh:  c.RefreshBudgetPerDay,
	}

	categories := make([]quota.CategoryUsage, 0, len(c.CategoryQuotas))
	for _, cq := range c.CategoryQuotas {
		categories = append(categories, quota.CategoryUsage{
			Category: cq.Category,
			L1:       cq.L1,
			L2:       cq.L2,
			Allowed:  cq.AdsBudget,
		})
	}

	return quota.NewState(allotted, categories)
}

// Product is an immutable catalog row. Rows are soft-deleted to preserve
// referential history for past purchases.
type Product struct {
	Code        string      `json:"code" yaml:"code"`
	Type        ProductType `json:"type" yaml:"type"`
	Vertical    string      `json:"vertical" yaml:"vertical"`
	SubVertical string      `json:"sub_vertical,omitempty" yaml:"sub_vertical,omitempty"`
	Price       Money       `json:"price" yaml:"price"`
	Duration    string      `json:"duration" yaml:"duration"` // e.g. "3 months", "1 year"
	Constraints Constraints `json:"constraints" yaml:"constraints"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// IsDeleted reports whether the product has been soft-deleted.
func (p Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Validate checks the invariants a product must satisfy before it may be
// persisted. Free products carry only category-scoped ad budgets: no
// featured, promoted, or refresh allowance, and the flat ads budget must
// equal the sum of the category budgets.
func (p Product) Validate() error {
	if p.Code == "" {
		return errors.Join(ErrInvalidConstraints, errors.New("product code is required"))
	}
	switch p.Type {
	case TypeSubscription, TypeAddon, TypeFree:
	default:
		return errors.Join(ErrInvalidConstraints, fmt.Errorf("unknown product type %q", p.Type))
	}
	if _, err := ParseDuration(p.Duration); err != nil {
		return err
	}

	c := p.Constraints
	if c.AdsBudget < 0 || c.FeaturedBudget < 0 || c.PromotedBudget < 0 || c.RefreshBudgetPerDay < 0 {
		return errors.Join(ErrInvalidConstraints, errors.New("budgets must be non-negative"))
	}
	for _, cq := range c.CategoryQuotas {
		if cq.Category == "" {
			return errors.Join(ErrInvalidConstraints, errors.New("category quota without category"))
		}
		if cq.AdsBudget < 0 {
			return errors.Join(ErrInvalidConstraints, errors.New("category budgets must be non-negative"))
		}
	}

	if p.Type == TypeFree {
		if c.FeaturedBudget != 0 || c.PromotedBudget != 0 || c.RefreshBudgetPerDay != 0 {
			return errors.Join(ErrInvalidConstraints,
				errors.New("free products carry no featured, promoted, or refresh budget"))
		}
		var sum int64
		for _, cq := range c.CategoryQuotas {
			sum += cq.AdsBudget
		}
		if c.AdsBudget != sum {
			return errors.Join(ErrInvalidConstraints,
				fmt.Errorf("free product ads budget %d must equal category sum %d", c.AdsBudget, sum))
		}
	}

	return nil
}
