package yubihsm

import (
	"errors"
	"testing"
)

func TestPrintBadError(t *testing.T) {
	// Ensure we avoid stack exhaustion.
	var err error = Error(0xff)
	t.Logf("err: %v", err)
}

func TestCommands(t *testing.T) {
	if CommandGetDevicePublicKey != 0x0a {
		t.Errorf("CommandGetDevicePublicKey %x != 0x0a", CommandGetDevicePublicKey)
	}
	if CommandCloseSession != 0x40 {
		t.Errorf("CommandCloseSession %x != 0x40", CommandCloseSession)
	}
	if CommandEncryptAESCBC != 0x72 {
		t.Errorf("CommandEncryptAESCBC %x != 0x72", CommandEncryptAESCBC)
	}
}

func TestPut(t *testing.T) {
	t.Log("purely to push coverage arbitrarily close to 100%")
	var buf [7]byte
	Put8(buf[0:], 1)
	Put16(buf[1:], 0x0203)
	Put32(buf[3:], 0x04050607)
	expect := "\x01\x02\x03\x04\x05\x06\x07"
	if string(buf[:]) != expect {
		t.Errorf("%q != %q", buf, expect)
	}
}

func TestStrings(t *testing.T) {
	t.Log("purely to push coverage arbitrarily close to 100%")
	for i := 0; i < 256; i++ {
		t.Logf("%v", CommandID(i))
		t.Logf("%v", TypeID(i))
	}
}

func TestErrorFrame(t *testing.T) {
	frame := ErrorFrame(nil, ErrDeviceSessionExpired)
	expect := "\x7f\x00\x01\x03"
	if string(frame) != expect {
		t.Errorf("%x != %x", frame, expect)
	}

	err := ParseDeviceError(frame)
	if !errors.Is(err, ErrDeviceSessionExpired) {
		t.Errorf("round-tripped error: %v", err)
	}
}

func TestParseResponseFraming(t *testing.T) {
	var echo Echo

	for _, tc := range []struct {
		name string
		buf  string
		ok   bool
	}{
		{"empty", "", false},
		{"short header", "\x81\x00", false},
		{"length overruns buffer", "\x81\x00\x02\xaa", false},
		{"wrong command", "\x83\x00\x01\xaa", false},
		{"exact", "\x81\x00\x01\xaa", true},
		{"valid padding trailer", "\x81\x00\x01\xaa\x80\x00\x00", true},
		{"padding missing marker", "\x81\x00\x01\xaa\x00\x00", false},
		{"padding trailing garbage", "\x81\x00\x01\xaa\x80\x01", false},
	} {
		err := ParseResponse(CommandEcho, &echo, []byte(tc.buf))
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		} else if !tc.ok && err == nil {
			t.Errorf("%s: should have failed", tc.name)
		}
	}
}

func TestParseResponseDeviceError(t *testing.T) {
	var rsp EmptyResponse
	err := ParseResponse(CommandEcho, &rsp, ErrorFrame(nil, ErrDeviceObjectNotFound))
	if !errors.Is(err, ErrDeviceObjectNotFound) {
		t.Errorf("expected device error, got: %v", err)
	}
}

func TestListObjectsSerialize(t *testing.T) {
	cmd := ListObjectsCommand{
		TypeFilter(TypeAsymmetricKey),
		LabelFilter("test-key"),
	}

	buf := cmd.Serialize(nil)
	if CommandID(buf[0]) != CommandListObjects {
		t.Errorf("wrong command ID: %#x", buf[0])
	}
	if l := int(buf[1])<<8 | int(buf[2]); l != len(buf)-HeaderLength {
		t.Errorf("declared length %d != %d", l, len(buf)-HeaderLength)
	}
	if buf[3] != filterType || TypeID(buf[4]) != TypeAsymmetricKey {
		t.Errorf("type filter misencoded: %x", buf[3:5])
	}
	if buf[5] != filterLabel {
		t.Errorf("label filter misencoded: %x", buf[5])
	}
	if string(buf[6:14]) != "test-key" {
		t.Errorf("label misencoded: %q", buf[6:14])
	}
	for _, b := range buf[14:] {
		if b != 0 {
			t.Errorf("label padding should be zero: %x", buf[14:])
			break
		}
	}
}

func TestGenerateAsymmetricKeySerialize(t *testing.T) {
	cmd := GenerateAsymmetricKeyCommand{
		KeyID:        0x1234,
		Label:        "signing",
		Domains:      0b101,
		Capabilities: 0xc0,
		Algorithm:    AlgorithmED25519,
	}

	buf := cmd.Serialize(nil)
	if len(buf) != HeaderLength+2+LabelLen+2+8+1 {
		t.Fatalf("serialized length %d", len(buf))
	}
	if CommandID(buf[0]) != CommandGenerateAsymmetricKey {
		t.Errorf("wrong command ID: %#x", buf[0])
	}
	if buf[3] != 0x12 || buf[4] != 0x34 {
		t.Errorf("key ID misencoded: %x", buf[3:5])
	}
	if AlgorithmID(buf[len(buf)-1]) != AlgorithmED25519 {
		t.Errorf("algorithm misencoded: %#x", buf[len(buf)-1])
	}
}

func TestCreateSessionResponseParse(t *testing.T) {
	var rsp CreateSessionResponse
	payload := []byte{
		7,
		1, 2, 3, 4, 5, 6, 7, 8,
		11, 12, 13, 14, 15, 16, 17, 18,
	}
	if err := rsp.Parse(payload); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rsp.SessionID != 7 {
		t.Errorf("session ID: %d", rsp.SessionID)
	}
	if rsp.CardChallenge != (Challenge{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("card challenge: %x", rsp.CardChallenge)
	}
	if rsp.CardCryptogram != (Cryptogram{11, 12, 13, 14, 15, 16, 17, 18}) {
		t.Errorf("card cryptogram: %x", rsp.CardCryptogram)
	}

	if err := rsp.Parse(payload[:16]); err == nil {
		t.Error("short payload should fail")
	}
}

func FuzzParseResponse(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x81, 0, 1, 0xaa})
	f.Add([]byte{0x7f, 0, 1, 3})
	f.Add([]byte{0x81, 0, 1, 0xaa, 0x80, 0, 0})

	f.Fuzz(func(t *testing.T, in []byte) {
		t.Parallel()
		var echo Echo
		_ = ParseResponse(CommandEcho, &echo, in)

		var info DeviceInfoResponse
		_ = ParseResponse(CommandGetDeviceInfo, &info, in)

		var pub GetPublicKeyResponse
		_ = ParseResponse(CommandGetPublicKey, &pub, in)
	})
}
