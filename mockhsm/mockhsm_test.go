package mockhsm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yubihsm "github.com/Sntx626/yubihsm/internal"
	"github.com/Sntx626/yubihsm/mockhsm"
)

// sendFrame runs one raw frame through the device, failing the test on
// a transport-level error.
func sendFrame(t *testing.T, device *mockhsm.Device, frame []byte) []byte {
	t.Helper()
	rsp, err := device.SendCommand(context.Background(), frame)
	require.NoError(t, err)
	return rsp
}

func TestPlaintextEcho(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	rsp := sendFrame(t, device, []byte{0x01, 0x00, 0x03, 0xaa, 0xbb, 0xcc})
	assert.Equal(t, []byte{0x81, 0x00, 0x03, 0xaa, 0xbb, 0xcc}, rsp)
}

func TestPlaintextDeviceInfo(t *testing.T) {
	t.Parallel()
	device := mockhsm.New(mockhsm.WithSerialNumber(0x01020304))

	rsp := sendFrame(t, device, []byte{0x06, 0x00, 0x00})
	require.GreaterOrEqual(t, len(rsp), 3+9)
	assert.EqualValues(t, 0x86, rsp[0])
	assert.Equal(t, []byte{2, 2, 0}, rsp[3:6], "firmware version")
	assert.Equal(t, []byte{1, 2, 3, 4}, rsp[6:10], "serial number")
}

func TestMalformedFrames(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	for _, tc := range []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x01, 0x00}},
		{"length mismatch", []byte{0x01, 0x00, 0x05, 0xaa}},
	} {
		rsp := sendFrame(t, device, tc.frame)
		require.Len(t, rsp, 4, tc.name)
		assert.EqualValues(t, yubihsm.CommandErrorStatus, rsp[0], tc.name)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	rsp := sendFrame(t, device, []byte{0x6b, 0x00, 0x00})
	require.Len(t, rsp, 4)
	assert.EqualValues(t, yubihsm.CommandErrorStatus, rsp[0])
	assert.EqualValues(t, yubihsm.ErrDeviceUnknownCommand, rsp[3])
}

func TestCreateSessionUnknownKeySet(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	frame := []byte{0x03, 0x00, 0x0a, 0x00, 0x42, 1, 2, 3, 4, 5, 6, 7, 8}
	rsp := sendFrame(t, device, frame)
	require.Len(t, rsp, 4)
	assert.EqualValues(t, yubihsm.CommandErrorStatus, rsp[0])
	assert.EqualValues(t, yubihsm.ErrDeviceObjectNotFound, rsp[3])
}

func TestCreateSessionResponseShape(t *testing.T) {
	t.Parallel()
	challenge := [8]byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
	device := mockhsm.New(mockhsm.WithCardChallenge(challenge))

	frame := []byte{0x03, 0x00, 0x0a, 0x00, 0x01, 1, 2, 3, 4, 5, 6, 7, 8}
	rsp := sendFrame(t, device, frame)

	require.Len(t, rsp, 3+1+8+8)
	assert.EqualValues(t, 0x83, rsp[0])
	assert.EqualValues(t, 0, rsp[3], "first session ID")
	assert.Equal(t, challenge[:], rsp[4:12], "pinned card challenge")
	assert.NotEqual(t, make([]byte, 8), rsp[12:20], "card cryptogram must be derived")
}

func TestSessionMessageWithoutSession(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	frame := append([]byte{0x05, 0x00, 0x19, 0x07}, make([]byte, 24)...)
	rsp := sendFrame(t, device, frame)
	require.Len(t, rsp, 4)
	assert.EqualValues(t, yubihsm.ErrDeviceSessionExpired, rsp[3])
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()
	device := mockhsm.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := device.SendCommand(ctx, []byte{0x01, 0x00, 0x00})
	require.ErrorIs(t, err, context.Canceled)
}
