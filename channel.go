package yubihsm

import (
	"context"

	yubihsm "github.com/Sntx626/yubihsm/internal"
)

// Execute sends an arbitrary command through the authenticated session
// and returns the device's response payload. The command code and
// payload are passed through opaquely: the session encrypts and MACs
// the message, verifies and decrypts the response, and strips the
// framing, but does not interpret the payload on either side.
//
// This is an escape hatch for commands this package has no typed
// wrapper for. The session's full protections still apply, including
// the anti-replay counter and the requirement that the session be
// authenticated.
//
// The returned slice is only valid until the next command is sent.
func (s *Session) Execute(ctx context.Context, conn Connector, cmdCode uint8, payload []byte) ([]byte, error) {
	cmd := yubihsm.RawCommand{
		Code:    yubihsm.CommandID(cmdCode),
		Payload: payload,
	}

	var rsp yubihsm.RawResponse
	err := s.sendCommand(ctx, conn, false, &cmd, &rsp)
	if err != nil {
		return nil, err
	}
	return rsp, nil
}
