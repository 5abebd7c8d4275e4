// Package yubihsm implements the YubiHSM2 command protocol: the binary
// frame layout, the command/response value objects, and the SCP03 key
// derivation shared by the client and the mock device.
package yubihsm

import (
	"fmt"
)

//go:generate go run golang.org/x/tools/cmd/stringer -linecomment -output=protocol_string.go -type=AlgorithmID,CommandID,Error,TypeID

// ObjectID identifies a key or other object stored on a YubiHSM2.
//
// [YubiHSM2 Object ID]: https://developers.yubico.com/YubiHSM2/Concepts/Object_ID.html
type ObjectID uint16

// CommandID identifies a (request, response) message pair.
//
// Response messages echo the request's command ID with the high bit set;
// an error response instead carries [CommandErrorStatus].
//
// [YubiHSM2 Commands]: https://developers.yubico.com/YubiHSM2/Commands/
type CommandID uint8

const (
	CommandEcho                    CommandID = 0x01
	CommandCreateSession           CommandID = 0x03
	CommandAuthenticateSession     CommandID = 0x04
	CommandSessionMessage          CommandID = 0x05
	CommandGetDeviceInfo           CommandID = 0x06
	CommandResetDevice             CommandID = 0x08
	CommandGetDevicePublicKey      CommandID = 0x0a
	CommandCloseSession            CommandID = 0x40
	CommandGetStorageInfo          CommandID = 0x41
	CommandPutOpaque               CommandID = 0x42
	CommandGetOpaque               CommandID = 0x43
	CommandPutAuthenticationKey    CommandID = 0x44
	CommandPutAsymmetricKey        CommandID = 0x45
	CommandGenerateAsymmetricKey   CommandID = 0x46
	CommandSignPKCS1v15            CommandID = 0x47
	CommandListObjects             CommandID = 0x48
	CommandDecryptPKCS1v15         CommandID = 0x49
	CommandExportWrapped           CommandID = 0x4a
	CommandImportWrapped           CommandID = 0x4b
	CommandPutWrapKey              CommandID = 0x4c
	CommandGetLogEntries           CommandID = 0x4d
	CommandGetObjectInfo           CommandID = 0x4e
	CommandSetOption               CommandID = 0x4f
	CommandGetOption               CommandID = 0x50
	CommandGetPseudoRandom         CommandID = 0x51
	CommandPutHMACKey              CommandID = 0x52
	CommandSignHMAC                CommandID = 0x53
	CommandGetPublicKey            CommandID = 0x54
	CommandSignPSS                 CommandID = 0x55
	CommandSignECDSA               CommandID = 0x56
	CommandDeriveECDH              CommandID = 0x57
	CommandDeleteObject            CommandID = 0x58
	CommandDecryptOAEP             CommandID = 0x59
	CommandGenerateHMACKey         CommandID = 0x5a
	CommandGenerateWrapKey         CommandID = 0x5b
	CommandVerifyHMAC              CommandID = 0x5c
	CommandSignSSHCertificate      CommandID = 0x5d
	CommandPutTemplate             CommandID = 0x5e
	CommandGetTemplate             CommandID = 0x5f
	CommandDecryptOTP              CommandID = 0x60
	CommandCreateOTPAEAD           CommandID = 0x61
	CommandRandomizeOTPAEAD        CommandID = 0x62
	CommandRewrapOTPAEAD           CommandID = 0x63
	CommandSignAttestation         CommandID = 0x64
	CommandPutOTPAEADKey           CommandID = 0x65
	CommandGenerateOTPAEADKey      CommandID = 0x66
	CommandSetLogIndex             CommandID = 0x67
	CommandWrapData                CommandID = 0x68
	CommandUnwrapData              CommandID = 0x69
	CommandSignEdDSA               CommandID = 0x6a
	CommandBlinkDevice             CommandID = 0x6b
	CommandChangeAuthenticationKey CommandID = 0x6c
	CommandPutSymmetricKey         CommandID = 0x6d
	CommandGenerateSymmetricKey    CommandID = 0x6e
	CommandDecryptAESECB           CommandID = 0x6f
	CommandEncryptAESECB           CommandID = 0x70
	CommandDecryptAESCBC           CommandID = 0x71
	CommandEncryptAESCBC           CommandID = 0x72

	// CommandResponse is OR'ed into the command ID of every success
	// response message.
	CommandResponse CommandID = 0x80

	// CommandErrorStatus is the command ID of an error response. The
	// single payload byte is the device [Error] code.
	CommandErrorStatus CommandID = 0x7f

	ResponseCreateSession       = CommandResponse | CommandCreateSession
	ResponseAuthenticateSession = CommandResponse | CommandAuthenticateSession
	ResponseSessionMessage      = CommandResponse | CommandSessionMessage
	ResponseGetDeviceInfo       = CommandResponse | CommandGetDeviceInfo
	ResponseEcho                = CommandResponse | CommandEcho
)

// AlgorithmID is a cryptographic algorithm identifier on a YubiHSM2.
//
// [YubiHSM2 Algorithms]: https://developers.yubico.com/YubiHSM2/Concepts/Algorithms.html
type AlgorithmID uint8

const (
	_ AlgorithmID = iota
	AlgorithmRSAPKCS1SHA1
	AlgorithmRSAPKCS1SHA256
	AlgorithmRSAPKCS1SHA384
	AlgorithmRSAPKCS1SHA512
	AlgorithmRSAPSSSHA1
	AlgorithmRSAPSSSHA256
	AlgorithmRSAPSSSHA384
	AlgorithmRSAPSSSHA512
	AlgorithmRSA2048
	AlgorithmRSA3072
	AlgorithmRSA4096
	AlgorithmECP256
	AlgorithmECP384
	AlgorithmECP521
	AlgorithmECK256
	AlgorithmECBP256
	AlgorithmECBP384
	AlgorithmECBP512
	AlgorithmHMACSHA1
	AlgorithmHMACSHA256
	AlgorithmHMACSHA384
	AlgorithmHMACSHA512
	AlgorithmECDSASHA1
	AlgorithmECECDH
	AlgorithmRSAOAEPSHA1
	AlgorithmRSAOAEPSHA256
	AlgorithmRSAOAEPSHA384
	AlgorithmRSAOAEPSHA512
	AlgorithmAES128CCMWRAP
	AlgorithmOpaqueData
	AlgorithmOpaqueX509Certificate
	AlgorithmMGF1SHA1
	AlgorithmMGF1SHA256
	AlgorithmMGF1SHA384
	AlgorithmMGF1SHA512
	AlgorithmSSHTemplate
	AlgorithmYubicoOTPAES128
	AlgorithmYubicoAESAuthentication
	AlgorithmYubicoOTPAES192
	AlgorithmYubicoOTPAES256
	AlgorithmAES192CCMWRAP
	AlgorithmAES256CCMWRAP
	AlgorithmECDSASHA256
	AlgorithmECDSASHA384
	AlgorithmECDSASHA512
	AlgorithmED25519
	AlgorithmECP224
	AlgorithmRSAPKCSv15Decrypt
	AlgorithmYubicoECP256Authentication
	AlgorithmAES128
	AlgorithmAES192
	AlgorithmAES256
	AlgorithmAESECB
	AlgorithmAESCBC

	algorithmMax
)

// TypeID is the type of an object stored on a YubiHSM2.
//
// [YubiHSM2 Objects]: https://developers.yubico.com/YubiHSM2/Concepts/Object.html
type TypeID uint8

const (
	_ TypeID = iota
	TypeOpaque
	TypeAuthenticationKey
	TypeAsymmetricKey
	TypeWrapKey
	TypeHMACKey
	TypeTemplate
	TypeOTPAEADKey
	TypeSymmetricKey
)

// Error is an error code reported by the YubiHSM2 itself. It is
// distinct from the protocol-level errors in this package: a device
// error means the command completed a full round trip and was rejected,
// so the session's cryptographic state remains intact.
//
// [YubiHSM2 Errors]: https://developers.yubico.com/YubiHSM2/Concepts/Errors.html
type Error uint8

const (
	errSuccess                Error = iota // success
	errUnknownCommand                      // unknown command
	errMalformedCommand                    // malformed data for the command
	errSessionExpiredOrDNE                 // the session has expired or does not exist
	errWrongAuthenticationKey              // wrong authentication key
	errNoMoreSessions                      // no more available sessions
	errSessionSetupFailed                  // session setup failed
	errStorageFull                         // storage full
	errWrongLength                         // wrong data length for the command
	errPermissions                         // insufficient permissions for the command
	errAuditLogFull                        // the log is full and force audit is enabled
	errNoMatchingObject                    // no object found matching given ID and Type
	errInvalidID                           // invalid ID
	_                                      // 0x0d undocumented
	errSSHConstraintsFailed                // constraints in SSH Template not met
	errOTPDecryptionFailed                 // OTP decryption failed
	errDemoPowerCycle                      // demo device must be power-cycled
	errUnableToOverwrite                   // unable to overwrite object
)

// Device error codes needed by callers outside this package. The
// remaining codes are reported through the [Error] type but carry no
// special handling.
const (
	ErrDeviceSessionExpired   = errSessionExpiredOrDNE
	ErrDeviceObjectNotFound   = errNoMatchingObject
	ErrDeviceUnknownCommand   = errUnknownCommand
	ErrDeviceMalformedCommand = errMalformedCommand
	ErrDeviceWrongLength      = errWrongLength
	ErrDeviceStorageFull      = errStorageFull
	ErrDeviceWrongAuthKey     = errWrongAuthenticationKey
	ErrDeviceSessionsFull     = errNoMoreSessions
	ErrDeviceInvalidID        = errInvalidID
)

// Error implements [error].
func (e Error) Error() string {
	return e.String()
}

// ErrorFrame serializes a device error response carrying [e].
func ErrorFrame(out []byte, e Error) []byte {
	return append(out, byte(CommandErrorStatus), 0, 1, byte(e))
}

// ParseDeviceError extracts the device [Error] from a serialized
// error-status frame. The frame's command ID must already have been
// checked.
func ParseDeviceError(buf []byte) error {
	return parseError(buf)
}

func parseError(buf []byte) error {
	var e Error
	if len(buf) > HeaderLength {
		e = Error(buf[HeaderLength])
	}
	return fmt.Errorf("received an error response: (%d) %w", int(e), e)
}

// Command is a serializable message sent to the YubiHSM2.
type Command interface {
	ID() CommandID
	Serialize([]byte) []byte
}

// Response is a deserializable message received from the YubiHSM2.
type Response interface {
	Parse([]byte) error
}

// ParseResponse validates a response frame's structure before handing
// the payload to [rsp]. The frame's declared length must fit within the
// buffer; any excess beyond the declared length must be well-formed CBC
// padding (a decrypted inner message retains its padding, a plaintext
// frame has none). Structural violations fail here, before the payload
// is interpreted.
func ParseResponse(cmdID CommandID, rsp Response, buf []byte) error {
	if len(buf) < HeaderLength {
		return errShortResponse
	}

	rspCmdID, rspLen := ParseHeader(buf)
	trailer := len(buf) - HeaderLength - rspLen
	switch {
	case trailer < 0:
		return errInvalidLength
	case rspCmdID == CommandErrorStatus:
		return parseError(buf)
	case rspCmdID != CommandResponse|cmdID:
		return Errorf("received a response for a different command: %#02x", int(rspCmdID))
	case !validPadding(buf[HeaderLength+rspLen:]):
		return errInvalidPadding
	}

	return rsp.Parse(buf[HeaderLength : HeaderLength+rspLen])
}

// validPadding reports whether [b] is empty or an ISO 7816-4 pad: a
// single 0x80 byte followed by zeroes.
func validPadding(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	if b[0] != 0x80 {
		return false
	}
	for _, v := range b[1:] {
		if v != 0 {
			return false
		}
	}
	return true
}
