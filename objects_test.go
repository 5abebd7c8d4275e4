package yubihsm_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sntx626/yubihsm"
	internal "github.com/Sntx626/yubihsm/internal"
)

func TestGenerateAndLoadKeyPair(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	generated, err := session.GenerateKeyPair(ctx, device, 0, "test-key", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err, "session.GenerateKeyPair")
	require.NotZero(t, generated.KeyID(), "device must assign a free object ID")

	_, ok := generated.Public().(ed25519.PublicKey)
	assert.True(t, ok, "generated key should be Ed25519, got %T", generated.Public())

	loaded, err := session.LoadKeyPair(ctx, device, "test-key")
	require.NoError(t, err, "session.LoadKeyPair")
	assert.Equal(t, generated.KeyID(), loaded.KeyID())
	assert.True(t, loaded.Public().Equal(generated.Public()), "loaded public key must match")
}

func TestGenerateKeyPairExplicitID(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0xb37e, "pinned", 1, 0, yubihsm.AlgorithmECP256)
	require.NoError(t, err)
	assert.Equal(t, yubihsm.ObjectID(0xb37e), key.KeyID())

	_, err = session.GenerateKeyPair(ctx, device, 0xb37e, "collides", 1, 0, yubihsm.AlgorithmECP256)
	var devErr yubihsm.DeviceError
	require.ErrorAs(t, err, &devErr, "reusing an object ID must fail")
}

func TestLoadKeyPairMissing(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	_, err := session.LoadKeyPair(ctx, device, "no-such-label")
	require.Error(t, err)
	assert.ErrorContains(t, err, "no-such-label")
}

func TestDeleteObject(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "ephemeral", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err)

	require.NoError(t, session.DeleteObject(ctx, device, key.KeyID(), yubihsm.TypeAsymmetricKey))

	_, err = session.LoadKeyPair(ctx, device, "ephemeral")
	assert.Error(t, err, "deleted key must not be found")

	err = session.DeleteObject(ctx, device, key.KeyID(), yubihsm.TypeAsymmetricKey)
	var devErr yubihsm.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, yubihsm.DeviceError(internal.ErrDeviceObjectNotFound), devErr)
}

func TestGetPseudoRandom(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	for _, n := range []int{0, 1, 15, 16, 17, 1000} {
		random, err := session.GetPseudoRandom(ctx, device, n)
		require.NoError(t, err, "GetPseudoRandom(%d)", n)
		require.Len(t, random, n)
	}

	_, err := session.GetPseudoRandom(ctx, device, -1)
	require.Error(t, err)
	_, err = session.GetPseudoRandom(ctx, device, 0x10000)
	require.Error(t, err)
}

func TestObjectsRequireAuthentication(t *testing.T) {
	t.Parallel()
	ctx := testingContext(t)

	var session yubihsm.Session
	_, err := session.GenerateKeyPair(ctx, nil, 0, "x", 1, 0, yubihsm.AlgorithmED25519)
	require.ErrorIs(t, err, yubihsm.ErrNotAuthenticated)

	err = session.DeleteObject(ctx, nil, 1, yubihsm.TypeAsymmetricKey)
	require.ErrorIs(t, err, yubihsm.ErrNotAuthenticated)

	_, err = session.GetPseudoRandom(ctx, nil, 8)
	require.ErrorIs(t, err, yubihsm.ErrNotAuthenticated)
}
