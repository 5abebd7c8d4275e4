package yubihsm_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sntx626/yubihsm"
)

func TestSignEd25519(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "ed-signer", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err)

	message := []byte("sign me, please")
	sig, err := key.Sign(ctx, device, session, message, crypto.Hash(0))
	require.NoError(t, err, "KeyPair.Sign")

	public := key.Public().(ed25519.PublicKey)
	assert.True(t, ed25519.Verify(public, message, sig), "signature must verify")

	t.Log("Ed25519ph is rejected before any device round trip")
	_, err = key.Sign(ctx, device, session, message, crypto.SHA512)
	require.Error(t, err)
}

func TestSignECDSA(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "p256-signer", 1, 0, yubihsm.AlgorithmECP256)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("sign me, please"))
	sig, err := key.Sign(ctx, device, session, digest[:], crypto.SHA256)
	require.NoError(t, err, "KeyPair.Sign")

	public := key.Public().(*ecdsa.PublicKey)
	assert.True(t, ecdsa.VerifyASN1(public, digest[:], sig), "signature must verify")
}

func TestAsCryptoSigner(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "std-signer", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err)

	signer := key.AsCryptoSigner(ctx, device, session)
	public := signer.Public().(ed25519.PublicKey)

	message := []byte("standard library calling")
	sig, err := signer.Sign(nil, message, crypto.Hash(0))
	require.NoError(t, err, "crypto.Signer.Sign")
	assert.True(t, ed25519.Verify(public, message, sig))
}

func TestDecryptUnsupportedKey(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "not-an-rsa-key", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err)

	_, err = key.Decrypt(ctx, device, session, []byte("ciphertext"), nil)
	require.Error(t, err, "only RSA keys can decrypt")

	decrypter := key.AsCryptoDecrypter(ctx, device, session)
	_, err = decrypter.Decrypt(nil, []byte("ciphertext"), nil)
	require.Error(t, err)
}

func TestSignClosedSession(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	key, err := session.GenerateKeyPair(ctx, device, 0, "orphaned", 1, 0, yubihsm.AlgorithmED25519)
	require.NoError(t, err)

	testSessionClose(ctx, t, device, session)

	_, err = key.Sign(ctx, device, session, []byte("too late"), crypto.Hash(0))
	require.ErrorIs(t, err, yubihsm.ErrSessionClosed)
}
