package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePair(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	x, y := NormalizePair(a, b)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)

	// Same pair regardless of argument order.
	x, y = NormalizePair(b, a)
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)
}

func TestConversationParticipants(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	u1, u2 := NormalizePair(a, b)
	c := &Conversation{User1ID: u1, User2ID: u2}

	assert.True(t, c.HasParticipant(a))
	assert.True(t, c.HasParticipant(b))
	assert.False(t, c.HasParticipant(uuid.New()))

	require.Equal(t, b, c.OtherParticipant(a))
	require.Equal(t, a, c.OtherParticipant(b))
}
