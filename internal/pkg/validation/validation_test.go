package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.co"))
	assert.True(t, IsValidEmail(" a@b.co "))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("not an email"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "admin@serviceloop.org", NormalizeEmail("  Admin@ServiceLoop.org "))
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword("12345"))
	assert.True(t, IsValidPassword("123456"))
}

func TestRequiredAndMaxLen(t *testing.T) {
	assert.True(t, Required("a", "b"))
	assert.False(t, Required("a", "  "))
	assert.True(t, MaxLen(strings.Repeat("x", MaxMissionLength), MaxMissionLength))
	assert.False(t, MaxLen(strings.Repeat("x", MaxMissionLength+1), MaxMissionLength))
}
