// Package policy decides which dataset items an identity may download.
package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// ErrUnknownCategory is returned when an item carries an access category the
// policy cannot evaluate.
var ErrUnknownCategory = errors.New("unknown access category")

// Identity is the acting user, as established by an external authentication
// layer. An empty UserID is the anonymous user.
type Identity struct {
	UserID string
	Roles  []string
	Groups []string

	// Grants lists datasets the user was given explicit access to after a
	// request to the depositor.
	Grants []catalog.DatasetID
}

// Anonymous returns the identity of a user that is not logged in.
func Anonymous() Identity {
	return Identity{}
}

// IsAnonymous reports whether the identity belongs to no user.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// HasRole reports whether the identity carries any of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(i.Roles, r) {
			return true
		}
	}
	return false
}

// Decision is the outcome of evaluating one item.
type Decision struct {
	Permit bool   `json:"permit"`
	Reason string `json:"reason"`
}

// Decisions is an ID-keyed side table of evaluated items. Items themselves
// are never mutated by evaluation.
type Decisions map[catalog.ItemID]Decision

// Permitted reports whether id was evaluated and permitted.
func (d Decisions) Permitted(id catalog.ItemID) bool {
	return d[id].Permit
}

// Policy evaluates access to dataset items.
type Policy interface {
	// Evaluate returns the permitted subset of items, in input order, and the
	// decision for every evaluated item.
	Evaluate(ctx context.Context, identity Identity, dataset *catalog.Dataset, items []*catalog.Item) ([]*catalog.Item, Decisions, error)

	// EvaluateItem evaluates a single item.
	EvaluateItem(ctx context.Context, identity Identity, dataset *catalog.Dataset, item *catalog.Item) (Decision, error)
}

// DefaultArchivistRoles bypass item-level rules.
var DefaultArchivistRoles = []string{"archivist", "admin"}

// AccessPolicy is the repository's rule-based policy. Rules are checked in
// order and the first match wins:
//
//  1. archivists and the dataset depositor may download everything
//  2. nothing else is visible while the dataset is under embargo
//  3. folders are always permitted
//  4. files follow their access category
type AccessPolicy struct {
	archivistRoles []string
	now            func() time.Time
}

// Option configures an AccessPolicy.
type Option func(*AccessPolicy)

// WithArchivistRoles replaces the roles that bypass item-level rules.
func WithArchivistRoles(roles ...string) Option {
	return func(p *AccessPolicy) {
		p.archivistRoles = roles
	}
}

// WithClock sets the clock used for embargo checks.
func WithClock(now func() time.Time) Option {
	return func(p *AccessPolicy) {
		p.now = now
	}
}

// NewAccessPolicy creates the policy.
func NewAccessPolicy(opts ...Option) *AccessPolicy {
	p := &AccessPolicy{
		archivistRoles: DefaultArchivistRoles,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AccessPolicy) Evaluate(ctx context.Context, identity Identity, dataset *catalog.Dataset, items []*catalog.Item) ([]*catalog.Item, Decisions, error) {
	decisions := make(Decisions, len(items))
	permitted := make([]*catalog.Item, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		decision, err := p.decide(identity, dataset, item)
		if err != nil {
			return nil, nil, err
		}

		decisions[item.ID] = decision
		if decision.Permit {
			permitted = append(permitted, item)
		}
	}
	return permitted, decisions, nil
}

func (p *AccessPolicy) EvaluateItem(ctx context.Context, identity Identity, dataset *catalog.Dataset, item *catalog.Item) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	return p.decide(identity, dataset, item)
}

func (p *AccessPolicy) decide(identity Identity, dataset *catalog.Dataset, item *catalog.Item) (Decision, error) {
	if dataset == nil {
		return Decision{}, errors.New("policy evaluation without dataset")
	}
	if item.DatasetID != "" && item.DatasetID != dataset.ID {
		return Decision{Permit: false, Reason: "item belongs to another dataset"}, nil
	}

	if identity.HasRole(p.archivistRoles...) {
		return Decision{Permit: true, Reason: "archivist"}, nil
	}
	if !identity.IsAnonymous() && identity.UserID == dataset.DepositorID {
		return Decision{Permit: true, Reason: "depositor"}, nil
	}
	if dataset.UnderEmbargo(p.now()) {
		return Decision{Permit: false, Reason: "dataset under embargo"}, nil
	}
	if item.IsFolder() {
		return Decision{Permit: true, Reason: "folder"}, nil
	}

	switch item.AccessibleTo {
	case catalog.AccessAnonymous:
		return Decision{Permit: true, Reason: "open access"}, nil
	case catalog.AccessKnown:
		if identity.IsAnonymous() {
			return Decision{Permit: false, Reason: "login required"}, nil
		}
		return Decision{Permit: true, Reason: "known user"}, nil
	case catalog.AccessRestrictedRequest:
		if slices.Contains(identity.Grants, dataset.ID) {
			return Decision{Permit: true, Reason: "access granted on request"}, nil
		}
		return Decision{Permit: false, Reason: "access must be requested"}, nil
	case catalog.AccessRestrictedGroup:
		for _, g := range identity.Groups {
			if slices.Contains(dataset.Groups, g) {
				return Decision{Permit: true, Reason: "group member"}, nil
			}
		}
		return Decision{Permit: false, Reason: "group membership required"}, nil
	case catalog.AccessNone:
		return Decision{Permit: false, Reason: "no public access"}, nil
	default:
		return Decision{}, fmt.Errorf("item %s: %w %q", item.ID, ErrUnknownCategory, item.AccessibleTo)
	}
}
