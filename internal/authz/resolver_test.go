package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrincipal struct {
	id        int64
	superuser bool
	enabled   bool
	direct    []int64
	groups    []int64
}

func (p fakePrincipal) PrincipalID() int64           { return p.id }
func (p fakePrincipal) IsSuperuser() bool            { return p.superuser }
func (p fakePrincipal) IsEnabled() bool              { return p.enabled }
func (p fakePrincipal) DirectPermissionIDs() []int64 { return p.direct }
func (p fakePrincipal) GroupIDs() []int64            { return p.groups }

type fakeCatalog struct {
	permissions map[int64]string
	groups      map[int64][]string
	calls       int
	err         error
}

func (f *fakeCatalog) PermissionCodesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if code, ok := f.permissions[id]; ok {
			out = append(out, code)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GroupsPermissionCodes(ctx context.Context, groupIDs []int64) (map[int64][]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64][]string, len(groupIDs))
	for _, id := range groupIDs {
		out[id] = f.groups[id]
	}
	return out, nil
}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		permissions: map[int64]string{
			1: "inventory.device.view",
			2: "inventory.device.edit",
			3: "inventory.device.delete",
			4: "directory.user.view",
		},
		groups: map[int64][]string{
			10: {"inventory.device.view", "inventory.device.edit"},
			11: {"inventory.device.edit", "directory.user.view"},
		},
	}
}

func TestEffectivePermissionsUnion(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)
	ctx := context.Background()

	p := fakePrincipal{id: 7, enabled: true, direct: []int64{3}, groups: []int64{10, 11}}

	set, err := resolver.EffectivePermissions(ctx, p)
	require.NoError(t, err)
	assert.False(t, set.IsUniversal())
	assert.Equal(t, []string{
		"directory.user.view",
		"inventory.device.delete",
		"inventory.device.edit",
		"inventory.device.view",
	}, set.List())
}

func TestEffectivePermissionsOverlapCountsOnce(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)

	// device.edit comes from both groups and a direct grant
	p := fakePrincipal{id: 7, enabled: true, direct: []int64{2}, groups: []int64{10, 11}}

	set, err := resolver.EffectivePermissions(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
}

func TestEffectivePermissionsEmpty(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)

	p := fakePrincipal{id: 9, enabled: true}

	set, err := resolver.EffectivePermissions(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.IsUniversal())

	ok, err := resolver.HasPermission(context.Background(), p, "inventory.device.view")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSuperuserSkipsStore(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)

	p := fakePrincipal{id: 1, superuser: true, enabled: true}

	set, err := resolver.EffectivePermissions(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, set.IsUniversal())
	assert.Equal(t, 0, source.calls)

	ok, err := resolver.HasPermission(context.Background(), p, "reporting.export.create")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, source.calls)
}

func TestSuperuserHoldsUnknownCodes(t *testing.T) {
	resolver := NewResolver(newTestCatalog())
	p := fakePrincipal{superuser: true, enabled: true}

	// codes not present in the catalog at all
	ok, err := resolver.HasPermission(context.Background(), p, "future.module.action")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolverIgnoresEnablementFlags(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)

	disabled := fakePrincipal{id: 3, enabled: false, groups: []int64{10}}

	ok, err := resolver.HasPermission(context.Background(), disabled, "inventory.device.view")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasAnyOf(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)
	ctx := context.Background()

	p := fakePrincipal{id: 5, enabled: true, groups: []int64{10}}

	ok, err := resolver.HasAnyOf(ctx, p, []string{"directory.user.view", "inventory.device.view"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasAnyOf(ctx, p, []string{"directory.user.view", "directory.user.edit"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = resolver.HasAnyOf(ctx, p, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasAllOf(t *testing.T) {
	source := newTestCatalog()
	resolver := NewResolver(source)
	ctx := context.Background()

	p := fakePrincipal{id: 5, enabled: true, groups: []int64{10}}

	ok, err := resolver.HasAllOf(ctx, p, []string{"inventory.device.view", "inventory.device.edit"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasAllOf(ctx, p, []string{"inventory.device.view", "inventory.device.delete"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolverPropagatesStoreError(t *testing.T) {
	source := newTestCatalog()
	source.err = errors.New("connection reset")
	resolver := NewResolver(source)

	p := fakePrincipal{id: 5, enabled: true, direct: []int64{1}}

	_, err := resolver.EffectivePermissions(context.Background(), p)
	require.Error(t, err)

	_, err = resolver.HasPermission(context.Background(), p, "inventory.device.view")
	require.Error(t, err)
}
