package policy

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testDataset() *catalog.Dataset {
	return &catalog.Dataset{
		ID:          "ds-1",
		DepositorID: "alice",
		Groups:      []string{"geology"},
	}
}

func file(id string, access catalog.AccessCategory) *catalog.Item {
	return &catalog.Item{ID: catalog.ItemID(id), DatasetID: "ds-1", Kind: catalog.ItemKindFile, AccessibleTo: access}
}

func TestAccessPolicyFileCategories(t *testing.T) {
	p := NewAccessPolicy(WithClock(func() time.Time { return now }))
	ds := testDataset()

	tests := []struct {
		name     string
		identity Identity
		access   catalog.AccessCategory
		permit   bool
	}{
		{"AnonymousOpen", Anonymous(), catalog.AccessAnonymous, true},
		{"AnonymousKnown", Anonymous(), catalog.AccessKnown, false},
		{"UserKnown", Identity{UserID: "bob"}, catalog.AccessKnown, true},
		{"RequestWithoutGrant", Identity{UserID: "bob"}, catalog.AccessRestrictedRequest, false},
		{"RequestWithGrant", Identity{UserID: "bob", Grants: []catalog.DatasetID{"ds-1"}}, catalog.AccessRestrictedRequest, true},
		{"GroupOutsider", Identity{UserID: "bob", Groups: []string{"biology"}}, catalog.AccessRestrictedGroup, false},
		{"GroupMember", Identity{UserID: "bob", Groups: []string{"geology"}}, catalog.AccessRestrictedGroup, true},
		{"NoneForUser", Identity{UserID: "bob"}, catalog.AccessNone, false},
		{"NoneForDepositor", Identity{UserID: "alice"}, catalog.AccessNone, true},
		{"NoneForArchivist", Identity{UserID: "carol", Roles: []string{"archivist"}}, catalog.AccessNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.EvaluateItem(context.Background(), tt.identity, ds, file("f", tt.access))
			require.NoError(t, err)
			assert.Equal(t, tt.permit, d.Permit, d.Reason)
		})
	}
}

func TestAccessPolicyEmbargo(t *testing.T) {
	until := now.Add(24 * time.Hour)
	ds := testDataset()
	ds.EmbargoUntil = &until

	p := NewAccessPolicy(WithClock(func() time.Time { return now }))

	d, err := p.EvaluateItem(context.Background(), Identity{UserID: "bob"}, ds, file("f", catalog.AccessAnonymous))
	require.NoError(t, err)
	assert.False(t, d.Permit)

	folder := &catalog.Item{ID: "dir", DatasetID: "ds-1", Kind: catalog.ItemKindFolder}
	d, err = p.EvaluateItem(context.Background(), Identity{UserID: "bob"}, ds, folder)
	require.NoError(t, err)
	assert.False(t, d.Permit)

	d, err = p.EvaluateItem(context.Background(), Identity{UserID: "alice"}, ds, file("f", catalog.AccessAnonymous))
	require.NoError(t, err)
	assert.True(t, d.Permit)

	later := NewAccessPolicy(WithClock(func() time.Time { return until.Add(time.Second) }))
	d, err = later.EvaluateItem(context.Background(), Identity{UserID: "bob"}, ds, file("f", catalog.AccessAnonymous))
	require.NoError(t, err)
	assert.True(t, d.Permit)
}

func TestAccessPolicyEvaluateKeepsOrderAndDecisions(t *testing.T) {
	p := NewAccessPolicy()
	items := []*catalog.Item{
		file("a", catalog.AccessAnonymous),
		file("b", catalog.AccessNone),
		{ID: "dir", DatasetID: "ds-1", Kind: catalog.ItemKindFolder},
		file("c", catalog.AccessKnown),
	}

	permitted, decisions, err := p.Evaluate(context.Background(), Identity{UserID: "bob"}, testDataset(), items)
	require.NoError(t, err)

	ids := make([]catalog.ItemID, len(permitted))
	for i, item := range permitted {
		ids[i] = item.ID
	}
	assert.Equal(t, []catalog.ItemID{"a", "dir", "c"}, ids)
	assert.Len(t, decisions, 4)
	assert.False(t, decisions.Permitted("b"))
	assert.True(t, decisions.Permitted("c"))
	assert.False(t, decisions.Permitted("never-seen"))
}

func TestAccessPolicyUnknownCategory(t *testing.T) {
	p := NewAccessPolicy()
	_, _, err := p.Evaluate(context.Background(), Anonymous(), testDataset(), []*catalog.Item{file("x", "secret")})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestAccessPolicyCustomArchivistRoles(t *testing.T) {
	p := NewAccessPolicy(WithArchivistRoles("curator"))
	id := Identity{UserID: "dan", Roles: []string{"curator"}}

	d, err := p.EvaluateItem(context.Background(), id, testDataset(), file("f", catalog.AccessNone))
	require.NoError(t, err)
	assert.True(t, d.Permit)

	d, err = p.EvaluateItem(context.Background(), Identity{UserID: "eve", Roles: []string{"admin"}}, testDataset(), file("f", catalog.AccessNone))
	require.NoError(t, err)
	assert.False(t, d.Permit)
}
