package yubihsm

import (
	"bytes"
	"context"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"math/big"
	"strings"
	"testing"

	yubihsm "github.com/Sntx626/yubihsm/internal"
)

const MaxMessagesBeforeRekey = maxMessagesBeforeRekey

func TestGenerateDefaultKey(t *testing.T) {
	t.Parallel()
	encKey, macKey := deriveAuthenticationKeys("password")

	var config authConfig
	defaultEnc, defaultMAC := config.authKeys()
	if encKey != defaultEnc || macKey != defaultMAC {
		t.Errorf(`derived default keys drifted from the constants:
var (
	defaultEncryptionKey = %#v
	defaultMACKey        = %#v
)
`, encKey, macKey)
	}
}

func TestPSSSaltLength(t *testing.T) {
	t.Parallel()
	pub := &rsa.PublicKey{
		N: new(big.Int).Lsh(big.NewInt(1), 2047),
		E: 65537,
	}

	for _, tc := range []struct {
		name    string
		saltLen int
		expect  uint16
		ok      bool
	}{
		{"auto", rsa.PSSSaltLengthAuto, 32, true},
		{"equals hash", rsa.PSSSaltLengthEqualsHash, 32, true},
		{"explicit", 20, 20, true},
		{"negative", -5, 0, false},
	} {
		saltLen, err := pssSaltLength(pub, &rsa.PSSOptions{
			SaltLength: tc.saltLen,
			Hash:       crypto.SHA256,
		})
		if tc.ok && (err != nil || saltLen != tc.expect) {
			t.Errorf("%s: got %d, %v", tc.name, saltLen, err)
		} else if !tc.ok && err == nil {
			t.Errorf("%s: should have failed", tc.name)
		}
	}
}

func TestOrDefault(t *testing.T) {
	t.Parallel()
	if orDefault(crypto.SHA1, crypto.SHA256) != crypto.SHA1 {
		t.Error("explicit hash should win")
	}
	if orDefault(0, crypto.SHA256) != crypto.SHA256 {
		t.Error("zero hash should fall back")
	}
}

func InvalidRand() AuthenticationOption {
	return func(_ *Session, c *authConfig) error {
		c.rand = strings.NewReader("short")
		return nil
	}
}

// FixedHostChallenges pins the host challenges of successive
// authentications, making the session transcript deterministic against
// a device with a pinned card challenge.
func FixedHostChallenges(hostChallenges [][8]byte, options ...AuthenticationOption) []AuthenticationOption {
	var hostChallenge bytes.Buffer
	for _, c := range hostChallenges {
		_, _ = hostChallenge.Write(c[:])
	}

	return append(options, func(_ *Session, c *authConfig) error {
		c.rand = &hostChallenge
		return nil
	})
}

func (s *Session) SessionID() byte {
	return s.sessionID
}

// Closed reports whether the session has reached its terminal state.
func (s *Session) Closed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state == stateClosed
}

func (s *Session) GetPublicKey(ctx context.Context, conn Connector, keyID ObjectID) (yubihsm.PublicKey, error) { //nolint:ireturn
	return s.getPublicKey(ctx, conn, keyID)
}

// EncryptResponse encrypts and MACs an arbitrary inner response using
// the session's current receive state, as the device would for the
// in-flight command. [trim] shortens the encrypted body to fabricate
// structurally invalid messages.
func (s *Session) EncryptResponse(response []byte, trim int) []byte {
	out := make([]byte, 4+len(response), 4+15+8+len(response))
	const pad = "\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"
	padding := aes.BlockSize - len(out[4:])%aes.BlockSize
	out = append(out, pad[:padding+macLength]...)

	s.lock.Lock()
	defer s.lock.Unlock()

	yubihsm.Put8(out[0:], yubihsm.ResponseSessionMessage)
	yubihsm.Put16(out[1:], len(out)-yubihsm.HeaderLength)
	yubihsm.Put8(out[yubihsm.HeaderLength:], s.sessionID)

	inner := out[4 : len(out)-macLength]
	copy(inner, response)

	var iv [aes.BlockSize]byte
	yubihsm.Put32(iv[len(iv)-4:], s.messageCounter-1)
	block, _ := aes.NewCipher(s.encryptionKey[:])
	block.Encrypt(iv[:], iv[:])
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(inner, inner)

	inner = inner[:len(inner)-trim]
	out = out[:len(out)-trim]

	mac := yubihsm.ChainedCMAC(s.rmacKey, s.macChaining, yubihsm.ResponseSessionMessage, s.sessionID, inner)
	copy(out[len(out)-macLength:], mac[:])

	return out
}

func SessionFuzzResponseParsing(authenticated *Session) func(*testing.T, []byte) {
	session := Session{session: authenticated.session}

	return func(t *testing.T, in []byte) {
		t.Parallel()
		var iv [aes.BlockSize]byte
		yubihsm.Put32(iv[len(iv)-4:], session.messageCounter)
		block, _ := aes.NewCipher(session.encryptionKey[:])
		block.Encrypt(iv[:], iv[:])

		decrypt := decryptResponse{session.rmacKey, session.macChaining, block, iv[:], session.SessionID()}
		_, _ = decrypt.decryptSessionResponse(in)
	}
}
