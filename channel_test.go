package yubihsm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Sntx626/yubihsm"
	internal "github.com/Sntx626/yubihsm/internal"
)

func TestExecuteEcho(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	payload := []byte("arbitrary payload of awkward length")
	rsp, err := session.Execute(ctx, device, 0x01, payload)
	if err != nil {
		t.Fatalf("session.Execute(echo): %v", err)
	}
	if !bytes.Equal(rsp, payload) {
		t.Errorf("echoed payload differs: %x != %x", rsp, payload)
	}

	testSessionClose(ctx, t, device, session)
}

func TestExecuteUnknownCommand(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	_, err := session.Execute(ctx, device, 0x6b, nil)
	var devErr yubihsm.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected a device error, got: %v", err)
	}
	if devErr != internal.ErrDeviceUnknownCommand {
		t.Errorf("expected unknown-command, got: %v", devErr)
	}

	t.Log("a device-reported error leaves the session usable")
	testSendPing(ctx, t, device, session)
}

func TestExecuteRequiresAuthentication(t *testing.T) {
	t.Parallel()
	ctx := testingContext(t)

	var session yubihsm.Session
	_, err := session.Execute(ctx, nil, 0x01, []byte{0xff})
	if !errors.Is(err, yubihsm.ErrNotAuthenticated) {
		t.Errorf("expected %v, got %v", yubihsm.ErrNotAuthenticated, err)
	}
}

func TestExecuteCorruptedMAC(t *testing.T) {
	t.Parallel()
	ctx, device, session := loadMockSession(t, nil)

	conn := &corruptingConnector{conn: device}
	conn.corrupt = func(rsp []byte) {
		rsp[len(rsp)-3] ^= 0x80
	}
	_, err := session.Execute(ctx, conn, 0x03, []byte{1, 2, 3})
	if !errors.Is(err, yubihsm.ErrIncorrectMAC) {
		t.Fatalf("expected %v, got %v", yubihsm.ErrIncorrectMAC, err)
	}

	_, err = session.Execute(ctx, device, 0x03, []byte{1, 2, 3})
	if !errors.Is(err, yubihsm.ErrSessionClosed) {
		t.Errorf("expected %v, got %v", yubihsm.ErrSessionClosed, err)
	}
}
