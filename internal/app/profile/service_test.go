package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func takenSet(taken ...string) func(string) (bool, error) {
	set := make(map[string]bool, len(taken))
	for _, name := range taken {
		set[name] = true
	}
	return func(name string) (bool, error) {
		return set[name], nil
	}
}

func TestGenerateUniqueUsername(t *testing.T) {
	name, err := generateUniqueUsername("NightOwl", takenSet())
	require.NoError(t, err)
	assert.Equal(t, "NightOwl", name)

	name, err = generateUniqueUsername("NightOwl", takenSet("NightOwl"))
	require.NoError(t, err)
	assert.Equal(t, "NightOwl1", name)

	name, err = generateUniqueUsername("NightOwl", takenSet("NightOwl", "NightOwl1", "NightOwl2"))
	require.NoError(t, err)
	assert.Equal(t, "NightOwl3", name)
}

func TestGenerateUniqueUsernameLengthCap(t *testing.T) {
	// 20 characters exactly: fits untaken, but no room for a suffix.
	base := "abcdefghijklmnopqrst"
	require.Len(t, base, maxUsernameLength)

	name, err := generateUniqueUsername(base, takenSet())
	require.NoError(t, err)
	assert.Equal(t, base, name)

	_, err = generateUniqueUsername(base, takenSet(base))
	assert.Error(t, err)
}

func TestDisplayNameValidation(t *testing.T) {
	assert.True(t, displayNameRe.MatchString("Night_Owl99"))
	assert.False(t, displayNameRe.MatchString("night owl"))
	assert.False(t, displayNameRe.MatchString("naughty!"))
	assert.False(t, displayNameRe.MatchString(""))
}

func TestVibeValid(t *testing.T) {
	for _, v := range []Vibe{VibeSoft, VibeFlirty, VibeSpicy, VibeIntense} {
		assert.True(t, v.Valid())
	}
	assert.False(t, Vibe("grumpy").Valid())
}
