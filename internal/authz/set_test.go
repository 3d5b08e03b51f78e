package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionSetContains(t *testing.T) {
	set := NewPermissionSet("inventory.device.view", "inventory.device.edit")

	assert.True(t, set.Contains("inventory.device.view"))
	assert.False(t, set.Contains("inventory.device.delete"))
	assert.Equal(t, 2, set.Len())
}

func TestUniversalSet(t *testing.T) {
	set := UniversalSet()

	assert.True(t, set.IsUniversal())
	assert.True(t, set.Contains("anything.at.all"))
	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.List())
}

func TestUnion(t *testing.T) {
	a := NewPermissionSet("inventory.device.view")
	b := NewPermissionSet("inventory.device.view", "directory.user.view")

	merged := a.Union(b)
	assert.Equal(t, []string{"directory.user.view", "inventory.device.view"}, merged.List())
}

func TestUnionWithUniversal(t *testing.T) {
	a := NewPermissionSet("inventory.device.view")

	assert.True(t, a.Union(UniversalSet()).IsUniversal())
	assert.True(t, UniversalSet().Union(a).IsUniversal())
}

func TestNormalizeCodes(t *testing.T) {
	codes := normalizeCodes([]string{" Inventory.Device.View ", "inventory.device.view", "", "directory.user.edit"})
	assert.ElementsMatch(t, []string{"inventory.device.view", "directory.user.edit"}, codes)
}
