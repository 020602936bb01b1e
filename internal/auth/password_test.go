package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashNeverEqualsPlaintext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, h.Compare(hash, "s3cret-pass"))
	assert.False(t, h.Compare(hash, "S3cret-pass"))
}

func TestHasher_FreshSaltPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_Cost(t *testing.T) {
	hash, err := NewHasher(10).Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.MaxCost, NewHasher(99).cost)
}

func TestHasher_TooLong(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHasher_CompareGarbageHash(t *testing.T) {
	assert.False(t, NewHasher(bcrypt.MinCost).Compare("not-a-hash", "pw"))
}

func TestAnswerMatches(t *testing.T) {
	cases := []struct {
		stored, submitted string
		want              bool
	}{
		{"blue", "Blue ", true},
		{"  Perro", "perro", true},
		{"Ciudad de México", "ciudad de méxico", true},
		{"blue", "blu", false},
		{"blue", "b lue", false},
		{"", "", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AnswerMatches(tc.stored, tc.submitted), "%q vs %q", tc.stored, tc.submitted)
	}
}
