package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInitialsFromName(t *testing.T) {
	assert.Equal(t, "JD", GetInitialsFromName("Jane Doe"))
	assert.Equal(t, "JS", GetInitialsFromName("jane van der smith"))
	assert.Equal(t, "J", GetInitialsFromName("jane"))
	assert.Equal(t, "U", GetInitialsFromName(""))
	assert.Equal(t, "U", GetInitialsFromName("   "))
}

func TestGenerateAvatarWithInitials(t *testing.T) {
	url := GenerateAvatarWithInitials("JD")
	assert.True(t, strings.HasPrefix(url, "https://api.dicebear.com/"))
	assert.Contains(t, url, "seed=JD")
	assert.NotContains(t, url, "#")
}
