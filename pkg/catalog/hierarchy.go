package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// hierarchyNode mirrors the admin API payload for one top-level category.
type hierarchyNode struct {
	Category string           `json:"category"`
	L1       []hierarchyL1Row `json:"l1"`
}

type hierarchyL1Row struct {
	L1CategoryName string           `json:"l1CategoryName"`
	L1Cap          int64            `json:"l1Cap"`
	L2             []hierarchyL2Row `json:"l2,omitempty"`
}

type hierarchyL2Row struct {
	L2CategoryName string `json:"l2CategoryName"`
	AdsBudget      int64  `json:"adsBudget"`
}

// BuildCategoryQuotas flattens the admin-supplied category hierarchy into
// CategoryQuota entries. An L1 node with L2 children contributes quotas
// only at the L2 level; a childless L1 node contributes a single quota
// using its own cap. Any malformed input fails with
// ErrInvalidCategoryHierarchy before anything is persisted.
func BuildCategoryQuotas(raw []byte) ([]CategoryQuota, error) {
	var nodes []hierarchyNode
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&nodes); err != nil {
		return nil, errors.Join(ErrInvalidCategoryHierarchy, err)
	}

	var quotas []CategoryQuota
	for _, node := range nodes {
		if node.Category == "" {
			return nil, errors.Join(ErrInvalidCategoryHierarchy, errors.New("category name is required"))
		}
		for _, l1 := range node.L1 {
			if l1.L1CategoryName == "" {
				return nil, errors.Join(ErrInvalidCategoryHierarchy,
					fmt.Errorf("category %q has an unnamed l1 node", node.Category))
			}

			if len(l1.L2) == 0 {
				if l1.L1Cap < 0 {
					return nil, errors.Join(ErrInvalidCategoryHierarchy,
						fmt.Errorf("negative cap on %s/%s", node.Category, l1.L1CategoryName))
				}
				quotas = append(quotas, CategoryQuota{
					Category:  node.Category,
					L1:        l1.L1CategoryName,
					AdsBudget: l1.L1Cap,
				})
				continue
			}

			// L2 children exist, so the L1 node itself contributes no
			// standalone quota.
			for _, l2 := range l1.L2 {
				if l2.L2CategoryName == "" {
					return nil, errors.Join(ErrInvalidCategoryHierarchy,
						fmt.Errorf("%s/%s has an unnamed l2 node", node.Category, l1.L1CategoryName))
				}
				if l2.AdsBudget < 0 {
					return nil, errors.Join(ErrInvalidCategoryHierarchy,
						fmt.Errorf("negative budget on %s/%s/%s", node.Category, l1.L1CategoryName, l2.L2CategoryName))
				}
				quotas = append(quotas, CategoryQuota{
					Category:  node.Category,
					L1:        l1.L1CategoryName,
					L2:        l2.L2CategoryName,
					AdsBudget: l2.AdsBudget,
				})
			}
		}
	}

	return quotas, nil
}
