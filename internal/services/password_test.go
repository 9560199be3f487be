package services_test

import (
	"testing"

	"padelcentar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := services.NewHasher(bcrypt.MinCost)

	for _, plaintext := range []string{"password123", "PadelCentarUmag1", "ćevapi-šđž", ""} {
		digest, err := hasher.Hash(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, digest)
		assert.True(t, hasher.Verify(plaintext, digest), "plaintext %q", plaintext)
		assert.False(t, hasher.Verify(plaintext+"x", digest), "plaintext %q", plaintext)
	}
}

func TestHasher_SaltsEveryDigest(t *testing.T) {
	hasher := services.NewHasher(bcrypt.MinCost)
	a, err := hasher.Hash("same")
	require.NoError(t, err)
	b, err := hasher.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_MalformedDigestNeverMatches(t *testing.T) {
	hasher := services.NewHasher(bcrypt.MinCost)
	assert.False(t, hasher.Verify("password", ""))
	assert.False(t, hasher.Verify("password", "not-a-bcrypt-digest"))
	assert.False(t, hasher.Verify("password", "$2a$10$short"))
}

func TestHasher_ClampsCost(t *testing.T) {
	digest, err := services.NewHasher(1).Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	digest, err = services.NewHasher(0).Hash("pw")
	require.NoError(t, err)
	cost, err = bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
