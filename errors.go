package yubihsm

import (
	yubihsm "github.com/Sntx626/yubihsm/internal"
)

// Error is a simple constant-string error.
type Error string

func (e Error) Error() string {
	return string(e)
}

type sessionError string

func (s sessionError) Error() string {
	return string(s)
}

const (
	// ErrNotAuthenticated is returned if a command is sent over a
	// [Session] which has not completed authentication.
	ErrNotAuthenticated sessionError = "cannot send message over unauthenticated session"

	// ErrSessionClosed is returned if a command is sent over a
	// [Session] which has been closed, either explicitly or because
	// a MAC, sequence, or transport failure poisoned it. The error
	// is terminal; a new session must be authenticated.
	ErrSessionClosed sessionError = "session is closed and cannot be reused"

	// ErrReauthenticationRequired is returned when the maximum number
	// of commands have been sent over an encrypted [Session]. The
	// session must be reauthenticated by calling [Session.Authenticate].
	ErrReauthenticationRequired sessionError = "maximum messages sent; session must reauthenticate"

	// ErrIncorrectMAC is returned when a response from the YubiHSM2
	// has an incorrect MAC, or echoes the wrong session. It is
	// deliberately distinct from a [DeviceError]: a bad MAC means
	// the response cannot be trusted at all, so the session is
	// closed and its keys are discarded.
	ErrIncorrectMAC sessionError = "session message MAC failed"

	// ErrInvalidMessage is returned when a response message is
	// structurally invalid; generally the length is incorrect. The
	// check happens before any MAC verification is attempted.
	ErrInvalidMessage sessionError = "invalid response message"
)

// DeviceError is an error code reported by the YubiHSM2. Receiving one
// means the exchange completed a full authenticated round trip, so the
// session remains usable; whether to retry the command is up to the
// caller.
//
//	var devErr yubihsm.DeviceError
//	if errors.As(err, &devErr) { ... }
type DeviceError = yubihsm.Error

// ErrSessionExpired is the device error reported when the HSM no longer
// recognizes the session, typically after its inactivity timeout. Unlike
// other device errors it is terminal: the [Session] discards its keys
// and a new session must be opened.
//
//	if errors.Is(err, yubihsm.ErrSessionExpired) { ... }
const ErrSessionExpired = yubihsm.ErrDeviceSessionExpired
