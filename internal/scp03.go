package yubihsm

import (
	"crypto/aes"

	"github.com/aead/cmac"
)

// SCP03 key agreement and message authentication. Both the client
// session and the mock device derive their keys through this code, so
// identical inputs must always yield identical outputs.

const (
	// SessionKeyLen is the length of the AES keys used for session
	// encryption and MACs.
	SessionKeyLen = 16

	// MACLen is the length of the truncated CMAC carried by every
	// session-encrypted message.
	MACLen = 8
)

// SessionKey is a 128-bit AES key used to authenticate and encrypt a
// session. Both the pre-shared authentication keys and the derived
// per-session keys use this width.
type SessionKey [SessionKeyLen]byte

// Challenge is a fixed-width nonce exchanged during authentication and
// mixed into session-key derivation.
type Challenge [8]byte

// Cryptogram is a fixed-width proof-of-possession value computed from
// the derived session MAC key during the handshake.
type Cryptogram [8]byte

// SCP03 §4.1.5 data derivation constants. Each derived value gets a
// distinct constant so material derived for one purpose can never be
// confused with another.
const (
	DeriveCardCryptogram byte = 0
	DeriveHostCryptogram byte = 1
	DeriveEncKey         byte = 4
	DeriveMacKey         byte = 6
	DeriveRmacKey        byte = 7
)

func deriveKey(lenDerived, derivationConstant byte, key SessionKey, hostChallenge, cardChallenge Challenge) (derived SessionKey) {
	// SCP03 §4.1.5 Data Derivation Scheme
	fixedInput := [16]byte{
		// An 11-byte label of '00' bytes followed by the 1-byte
		// derivation constant.
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, derivationConstant,
		// A 1-byte separation indicator with value '00'.
		0,
		// A 2-byte integer "L": the length in bits of the
		// derived data.
		0, 8 * lenDerived,
		// A 1-byte KDF counter "i".
		1,
	}

	// Keys are hardcoded to 16 bytes; cipher and CMAC construction
	// cannot fail.
	block, _ := aes.NewCipher(key[:])
	mac, _ := cmac.New(block)

	_, _ = mac.Write(fixedInput[:])
	_, _ = mac.Write(hostChallenge[:])
	_, _ = mac.Write(cardChallenge[:])

	// CMAC produces 16 bytes so hash directly into the returned key.
	mac.Sum(derived[:0])
	return derived
}

// DeriveSessionKey derives one of the session's S-ENC/S-MAC/S-RMAC keys
// from a long-term key and the handshake's challenge pair.
func DeriveSessionKey(derivationConstant byte, key SessionKey, hostChallenge, cardChallenge Challenge) SessionKey {
	return deriveKey(SessionKeyLen, derivationConstant, key, hostChallenge, cardChallenge)
}

// DeriveCryptogram derives the card or host cryptogram from the session
// MAC key and the handshake's challenge pair.
func DeriveCryptogram(derivationConstant byte, macKey SessionKey, hostChallenge, cardChallenge Challenge) (derived Cryptogram) {
	key := deriveKey(byte(len(derived)), derivationConstant, macKey, hostChallenge, cardChallenge)
	copy(derived[:], key[:])
	return derived
}

// ChainedCMAC computes the CMAC over the running chain value, a session
// message header reconstructed from [cmd], [session] and the contents
// length, and the contents themselves. The full 16-byte CMAC is
// returned: it becomes the next chain value, and its first [MACLen]
// bytes are the MAC transmitted on the wire.
func ChainedCMAC(key, chaining SessionKey, cmd CommandID, session byte, contents []byte) (k SessionKey) {
	// Keys are hardcoded to 16 bytes; cipher and CMAC construction
	// cannot fail.
	block, _ := aes.NewCipher(key[:])
	mac, _ := cmac.New(block)

	// The header's length field covers the session ID, contents,
	// and the trailing MAC.
	l := 1 + len(contents) + MACLen
	header := [4]byte{byte(cmd), byte(l >> 8), byte(l), session}
	_, _ = mac.Write(chaining[:])
	_, _ = mac.Write(header[:])
	_, _ = mac.Write(contents)

	mac.Sum(k[:0])
	return k
}
