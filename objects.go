package yubihsm

import (
	"context"

	yubihsm "github.com/Sntx626/yubihsm/internal"
)

// AlgorithmID identifies a cryptographic algorithm on a YubiHSM2.
//
// [YubiHSM2 Algorithms]: https://developers.yubico.com/YubiHSM2/Concepts/Algorithms.html
type AlgorithmID = yubihsm.AlgorithmID

// TypeID is the type of an object stored on a YubiHSM2.
//
// [YubiHSM2 Objects]: https://developers.yubico.com/YubiHSM2/Concepts/Object.html
type TypeID = yubihsm.TypeID

// The asymmetric key algorithms supported by [Session.GenerateKeyPair].
const (
	AlgorithmRSA2048 = yubihsm.AlgorithmRSA2048
	AlgorithmRSA3072 = yubihsm.AlgorithmRSA3072
	AlgorithmRSA4096 = yubihsm.AlgorithmRSA4096
	AlgorithmECP224  = yubihsm.AlgorithmECP224
	AlgorithmECP256  = yubihsm.AlgorithmECP256
	AlgorithmECP384  = yubihsm.AlgorithmECP384
	AlgorithmECP521  = yubihsm.AlgorithmECP521
	AlgorithmED25519 = yubihsm.AlgorithmED25519
)

// The object types addressable by [Session.DeleteObject].
const (
	TypeOpaque            = yubihsm.TypeOpaque
	TypeAuthenticationKey = yubihsm.TypeAuthenticationKey
	TypeAsymmetricKey     = yubihsm.TypeAsymmetricKey
	TypeWrapKey           = yubihsm.TypeWrapKey
	TypeHMACKey           = yubihsm.TypeHMACKey
)

// getPublicKey retrieves the public half of an asymmetric keypair in
// the HSM.
//
// The returned public key will be one of an [*ecdsa.PublicKey],
// [ed25519.PublicKey], or an [*rsa.PublicKey].
func (s *Session) getPublicKey(ctx context.Context, conn Connector, keyID ObjectID) (yubihsm.PublicKey, error) { //nolint:ireturn
	cmd := yubihsm.GetPublicKeyCommand{
		KeyID: keyID,
	}
	var rsp yubihsm.GetPublicKeyResponse
	err := s.sendCommand(ctx, conn, false, &cmd, &rsp)
	if err != nil {
		return nil, err
	}
	return rsp.PublicKey, nil
}

// LoadKeyPair looks up the asymmetric keypair in the HSM using the
// provided [label] and returns a [KeyPair] which can be used to sign
// messages or decrypt ciphertext.
//
// The returned key's public will be one of an [*ecdsa.PublicKey],
// [ed25519.PublicKey], or an [*rsa.PublicKey]. Dependent upon the key's
// type and the [Effective Capabilities] [KeyPair.Sign] and/or
// [KeyPair.Decrypt] will work.
//
// [Effective Capabilities]: https://developers.yubico.com/YubiHSM2/Concepts/Effective_Capabilities.html
func (s *Session) LoadKeyPair(ctx context.Context, conn Connector, label string) (*KeyPair, error) {
	cmd := yubihsm.ListObjectsCommand{
		yubihsm.TypeFilter(yubihsm.TypeAsymmetricKey),
		yubihsm.LabelFilter(label),
	}
	var rsp yubihsm.ListObjectsResponse
	err := s.sendCommand(ctx, conn, false, cmd, &rsp)
	switch {
	case err != nil:
		return nil, err

	case len(rsp) == 0:
		return nil, yubihsm.Errorf("could not find asymmetric-key labeled %q", label)

	case len(rsp) > 1:
		// This should be impossible, keys are identified via
		// the (type, ID) pair.
		return nil, yubihsm.Errorf("HSM error: found %d asymmetric-keys labeled %q", len(rsp), label)
	}

	keyID := rsp[0].Object
	public, err := s.getPublicKey(ctx, conn, keyID)
	if err != nil {
		return nil, err
	}

	return &KeyPair{public, keyID}, nil
}

// GenerateKeyPair generates a new asymmetric keypair on the HSM and
// returns a [KeyPair] wrapping it. The key is stored under [keyID], or
// under a device-chosen free ID if [keyID] is zero; either way the
// effective ID is recorded in the returned [KeyPair].
//
// The [algorithm] selects the key type and must be one of the RSA,
// ECDSA, or Ed25519 algorithm IDs. [domains] and [capabilities] are the
// HSM's access-control bitmasks; see [Effective Capabilities].
//
// Generation of a large RSA key can take tens of seconds on-device;
// size the [ctx] deadline accordingly.
//
// [Effective Capabilities]: https://developers.yubico.com/YubiHSM2/Concepts/Effective_Capabilities.html
func (s *Session) GenerateKeyPair(ctx context.Context, conn Connector, keyID ObjectID, label string, domains uint16, capabilities uint64, algorithm AlgorithmID) (*KeyPair, error) {
	cmd := yubihsm.GenerateAsymmetricKeyCommand{
		KeyID:        keyID,
		Label:        label,
		Domains:      domains,
		Capabilities: capabilities,
		Algorithm:    algorithm,
	}
	var rsp yubihsm.GenerateAsymmetricKeyResponse
	err := s.sendCommand(ctx, conn, false, &cmd, &rsp)
	if err != nil {
		return nil, err
	}

	public, err := s.getPublicKey(ctx, conn, rsp.KeyID)
	if err != nil {
		return nil, err
	}

	return &KeyPair{public, rsp.KeyID}, nil
}

// DeleteObject removes the object of the given type and ID from the
// HSM. Deleting a keypair invalidates any [KeyPair] wrapping it.
func (s *Session) DeleteObject(ctx context.Context, conn Connector, objectID ObjectID, typeID TypeID) error {
	cmd := yubihsm.DeleteObjectCommand{
		ObjectID: objectID,
		Type:     typeID,
	}
	return s.sendCommand(ctx, conn, false, &cmd, yubihsm.DeleteObjectResponse{})
}

// GetPseudoRandom returns [n] bytes from the HSM's internal PRNG. The
// bytes travel under the session's encryption like any other response.
//
// The device caps a single request at slightly under 2kB; larger reads
// must be split across calls.
func (s *Session) GetPseudoRandom(ctx context.Context, conn Connector, n int) ([]byte, error) {
	if n < 0 || n > 0xffff {
		return nil, Error("requested random length out of range")
	}

	cmd := yubihsm.GetPseudoRandomCommand{
		Length: uint16(n),
	}
	var rsp yubihsm.GetPseudoRandomResponse
	err := s.sendCommand(ctx, conn, false, &cmd, &rsp)
	if err != nil {
		return nil, err
	} else if len(rsp) != n {
		return nil, Error("pseudo-random response length incorrect")
	}

	// The response aliases the receive buffer; copy so the caller
	// owns stable bytes.
	out := make([]byte, n)
	copy(out, rsp)
	return out, nil
}
