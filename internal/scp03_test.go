package yubihsm

import (
	"testing"
)

var (
	testKey           = SessionKey{0: 0x40, 15: 0x04}
	testHostChallenge = Challenge{1, 2, 3, 4, 5, 6, 7, 8}
	testCardChallenge = Challenge{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
)

func TestDeriveSessionKeyDomainSeparation(t *testing.T) {
	enc := DeriveSessionKey(DeriveEncKey, testKey, testHostChallenge, testCardChallenge)
	mac := DeriveSessionKey(DeriveMacKey, testKey, testHostChallenge, testCardChallenge)
	rmac := DeriveSessionKey(DeriveRmacKey, testKey, testHostChallenge, testCardChallenge)

	if enc == mac || enc == rmac || mac == rmac {
		t.Error("derivation constants must separate the derived keys")
	}
	if enc == (SessionKey{}) {
		t.Error("derived key is zero")
	}

	// Derivation is a pure function of its inputs.
	if enc != DeriveSessionKey(DeriveEncKey, testKey, testHostChallenge, testCardChallenge) {
		t.Error("derivation must be deterministic")
	}
}

func TestDeriveSessionKeyChallengeBinding(t *testing.T) {
	enc := DeriveSessionKey(DeriveEncKey, testKey, testHostChallenge, testCardChallenge)

	flipped := testHostChallenge
	flipped[0] ^= 1
	if enc == DeriveSessionKey(DeriveEncKey, testKey, flipped, testCardChallenge) {
		t.Error("host challenge must alter the derived key")
	}

	flipped = testCardChallenge
	flipped[7] ^= 0x80
	if enc == DeriveSessionKey(DeriveEncKey, testKey, testHostChallenge, flipped) {
		t.Error("card challenge must alter the derived key")
	}
}

func TestDeriveCryptogram(t *testing.T) {
	card := DeriveCryptogram(DeriveCardCryptogram, testKey, testHostChallenge, testCardChallenge)
	host := DeriveCryptogram(DeriveHostCryptogram, testKey, testHostChallenge, testCardChallenge)

	if card == host {
		t.Error("card and host cryptograms must differ")
	}
	if card == (Cryptogram{}) || host == (Cryptogram{}) {
		t.Error("cryptogram is zero")
	}
}

func TestChainedCMAC(t *testing.T) {
	contents := []byte{0xde, 0xad, 0xbe, 0xef}

	first := ChainedCMAC(testKey, SessionKey{}, CommandSessionMessage, 0, contents)
	second := ChainedCMAC(testKey, first, CommandSessionMessage, 0, contents)
	if first == second {
		t.Error("chaining value must alter the MAC")
	}

	if first != ChainedCMAC(testKey, SessionKey{}, CommandSessionMessage, 0, contents) {
		t.Error("MAC must be deterministic")
	}

	if first == ChainedCMAC(testKey, SessionKey{}, ResponseSessionMessage, 0, contents) {
		t.Error("command ID must be bound into the MAC")
	}

	if first == ChainedCMAC(testKey, SessionKey{}, CommandSessionMessage, 1, contents) {
		t.Error("session ID must be bound into the MAC")
	}
}
