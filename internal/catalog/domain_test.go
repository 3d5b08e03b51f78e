package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	scope, resource, action, err := ParseCode("inventory.device.view")
	require.NoError(t, err)
	assert.Equal(t, "inventory", scope)
	assert.Equal(t, "device", resource)
	assert.Equal(t, "view", action)
}

func TestParseCodeWithUnderscoresAndDigits(t *testing.T) {
	scope, resource, action, err := ParseCode("directory.user_profile.edit2")
	require.NoError(t, err)
	assert.Equal(t, "directory", scope)
	assert.Equal(t, "user_profile", resource)
	assert.Equal(t, "edit2", action)
}

func TestParseCodeMalformed(t *testing.T) {
	for _, code := range []string{
		"",
		"view",
		"device.view",
		"inventory.device.view.extra",
		"inventory..view",
		"Inventory.device.view",
		"inventory.dev ice.view",
		"inventory.device.",
	} {
		_, _, _, err := ParseCode(code)
		assert.Error(t, err, "code=%q", code)
	}
}

func TestPermissionCode(t *testing.T) {
	p := Permission{Scope: "inventory", Resource: "device", Action: "delete"}
	assert.Equal(t, "inventory.device.delete", p.Code())
}
