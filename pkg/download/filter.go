package download

import (
	"context"

	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Permitted is the outcome of filtering: the surviving items in resolved
// order plus the decision taken for every evaluated item.
type Permitted struct {
	Items     []*catalog.Item
	Decisions policy.Decisions
}

// Filter applies the access policy to resolved items.
type Filter struct {
	policy policy.Policy
}

// NewFilter creates a Filter.
func NewFilter(p policy.Policy) *Filter {
	return &Filter{policy: p}
}

// Apply evaluates every item. Policy failures surface as *ProcessingError.
func (f *Filter) Apply(ctx context.Context, identity policy.Identity, dataset *catalog.Dataset, items []*catalog.Item) (*Permitted, error) {
	permitted, decisions, err := f.policy.Evaluate(ctx, identity, dataset, items)
	if err != nil {
		logger.Error("Unable to apply download filter: %v", err)
		return nil, classify("filter", err)
	}

	logger.Debug("Download filter permitted %d of %d items for user %q", len(permitted), len(items), identity.UserID)
	return &Permitted{Items: permitted, Decisions: decisions}, nil
}

// ApplyOne evaluates a single item and turns a denial into an
// *AuthorizationError.
func (f *Filter) ApplyOne(ctx context.Context, identity policy.Identity, dataset *catalog.Dataset, item *catalog.Item) (policy.Decision, error) {
	decision, err := f.policy.EvaluateItem(ctx, identity, dataset, item)
	if err != nil {
		logger.Error("Unable to apply download filter: %v", err)
		return policy.Decision{}, classify("filter", err)
	}
	if !decision.Permit {
		return decision, &AuthorizationError{Message: "Insufficient rights"}
	}
	return decision, nil
}
