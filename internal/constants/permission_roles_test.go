package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(ManageFleet, "host"))
	assert.True(t, AllowedRole(ViewAnalytics, "admin"))
	assert.False(t, AllowedRole(ManageFleet, "viewer"))
	assert.False(t, AllowedRole("unknown_permission", "admin"))
}
