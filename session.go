package yubihsm

import (
	"bytes"
	"cmp"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"
	"sync"

	"github.com/pion/logging"
	"golang.org/x/crypto/pbkdf2"

	yubihsm "github.com/Sntx626/yubihsm/internal"
)

const (
	// The length of the keys used for AES encryption and MACs.
	sessionKeyLen = yubihsm.SessionKeyLen

	// The length of the MAC field in a message.
	macLength = yubihsm.MACLen

	// The maximum number of encrypted messages to send in a session
	// before rekeying.
	maxMessagesBeforeRekey = 10_000

	pbkdfIterations           = 10_000
	defaultAuthKeyID ObjectID = 1

	// sessionHeaderLength is command ID, length, session ID.
	sessionHeaderLength = yubihsm.HeaderLength + 1
)

// ObjectID identifies a key or other object stored on a YubiHSM2.
//
// [YubiHSM2 Object ID]: https://developers.yubico.com/YubiHSM2/Concepts/Object_ID.html
type ObjectID = yubihsm.ObjectID

// SessionKey is a random key used to authenticate and encrypt a
// YubiHSM2 session.
//
// These should always be randomly generated.
type SessionKey = yubihsm.SessionKey

// sessionState tracks the lifecycle of a [Session]. There is no
// transition out of stateClosed; a closed session rejects all command
// submissions and only [Session.Authenticate] (which opens an entirely
// new device session) resets the state.
type sessionState uint8

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticated
	stateClosed
)

// AuthenticationOption configures an HSM [Session].
type AuthenticationOption func(*Session, *authConfig) error

type authConfig struct {
	rand    io.Reader
	keyID   ObjectID
	encKey  SessionKey
	macKey  SessionKey
	hasKeys bool
}

func (c *authConfig) authKeys() (SessionKey, SessionKey) {
	if c.hasKeys {
		return c.encKey, c.macKey
	}

	// The default encryption and MAC key, derived from "password".
	// See [TestGenerateDefaultKey] for details.
	return SessionKey{0x9, 0xb, 0x47, 0xdb, 0xed, 0x59, 0x56, 0x54, 0x90, 0x1d, 0xee, 0x1c, 0xc6, 0x55, 0xe4, 0x20},
		SessionKey{0x59, 0x2f, 0xd4, 0x83, 0xf7, 0x59, 0xe2, 0x99, 0x9, 0xa0, 0x4c, 0x45, 0x5, 0xd2, 0xce, 0xa}
}

func (c *authConfig) apply(s *Session, options []AuthenticationOption) error {
	var err error
	for _, option := range options {
		err = errors.Join(err, option(s, c))
	}
	return err
}

func deriveAuthenticationKeys(password string) (encryptionKey, macKey SessionKey) {
	l := len(encryptionKey) + len(macKey)
	key := pbkdf2.Key([]byte(password), []byte("Yubico"), pbkdfIterations, l, sha256.New)
	l = copy(encryptionKey[:], key)
	copy(macKey[:], key[l:])
	return
}

// WithAuthenticationKeys sets the authentication key of a session. If
// left unspecified the session uses keys derived from the default HSM
// password.
//
// At most one of [WithPassword] or [WithAuthenticationKeys] may be used.
func WithAuthenticationKeys(encryptionKey, macKey SessionKey) AuthenticationOption {
	return func(_ *Session, c *authConfig) error {
		if c.hasKeys {
			return Error("authentication keys/password specified multiple times")
		}

		c.encKey = encryptionKey
		c.macKey = macKey
		c.hasKeys = true
		return nil
	}
}

// WithPassword sets the authentication password of a session. If left
// unspecified the session uses the default HSM password.
//
// At most one of [WithPassword] or [WithAuthenticationKeys] may be used.
func WithPassword(password string) AuthenticationOption {
	return WithAuthenticationKeys(deriveAuthenticationKeys(password))
}

// WithAuthenticationKeyID sets the authentication key ID of a session.
// If left unspecified the default HSM ID 1 is used.
func WithAuthenticationKeyID(keyID ObjectID) AuthenticationOption {
	return func(_ *Session, c *authConfig) error {
		c.keyID = keyID
		return nil
	}
}

// WithLoggerFactory enables logging of session lifecycle events through
// the provided factory. If left unspecified the session logs nothing.
func WithLoggerFactory(factory logging.LoggerFactory) AuthenticationOption {
	return func(s *Session, _ *authConfig) error {
		s.log = factory.NewLogger("hsm-session")
		return nil
	}
}

// Session is an encrypted and authenticated communication channel to an
// HSM. It is the session-owning half of this package: it tracks the
// derived session keys, the message counter, and the running MAC chain,
// and it refuses to carry commands outside its authenticated window.
//
// The zero Session is valid to use.
//
//	var session Session
//	err := session.Authenticate(ctx, conn)
//
// A Session serializes its own cryptographic state: concurrent calls
// are safe but are strictly ordered, since the counter and MAC chain
// are inherently sequential. Independent Sessions may be driven fully
// in parallel.
//
// [YubiHSM2 Session]: https://developers.yubico.com/YubiHSM2/Concepts/Session.html
type Session struct {
	lock sync.Mutex
	log  logging.LeveledLogger
	session
}

// session holds the cryptographic state of a [Session]. Access to its
// fields must be synchronized to avoid races.
type session struct {
	state          sessionState
	encryptionKey  SessionKey
	macKey         SessionKey
	rmacKey        SessionKey
	macChaining    SessionKey
	messageCounter uint32
	sessionID      byte
}

// createSession generates a [Create Session command] message.
//
// [Create Session command]: https://developers.yubico.com/YubiHSM2/Commands/Create_Session.html
func (c *authConfig) createSession() (yubihsm.CreateSessionCommand, error) {
	cmd := yubihsm.CreateSessionCommand{
		KeySetID: cmp.Or(c.keyID, defaultAuthKeyID),
	}
	_, err := io.ReadFull(cmp.Or(c.rand, rand.Reader), cmd.HostChallenge[:])
	return cmd, err
}

// authenticateSession processes the create-session response and creates
// an authenticate-session command. The session keys are derived from
// the challenge transcript, the card's cryptogram is verified in
// constant time, and the host cryptogram proving our own possession is
// computed for the final authentication frame.
//
// https://developers.yubico.com/YubiHSM2/Commands/Create_Session.html
// https://developers.yubico.com/YubiHSM2/Commands/Authenticate_Session.html
func (s *session) authenticateSession(encKey, macKey SessionKey, hostChallenge yubihsm.Challenge, create *yubihsm.CreateSessionResponse) (*yubihsm.AuthenticateSessionCommand, error) {
	rmacKey := yubihsm.DeriveSessionKey(yubihsm.DeriveRmacKey, macKey, hostChallenge, create.CardChallenge)
	macKey = yubihsm.DeriveSessionKey(yubihsm.DeriveMacKey, macKey, hostChallenge, create.CardChallenge)
	encKey = yubihsm.DeriveSessionKey(yubihsm.DeriveEncKey, encKey, hostChallenge, create.CardChallenge)

	cardCryptogram := yubihsm.DeriveCryptogram(yubihsm.DeriveCardCryptogram, macKey, hostChallenge, create.CardChallenge)
	if subtle.ConstantTimeCompare(cardCryptogram[:], create.CardCryptogram[:]) != 1 {
		return nil, Error("card cryptogram MAC incorrect")
	}

	s.encryptionKey = encKey
	s.macKey = macKey
	s.rmacKey = rmacKey
	s.sessionID = create.SessionID
	s.messageCounter = 1

	cmd := yubihsm.AuthenticateSessionCommand{
		SessionID: create.SessionID,
	}
	cmd.HostCryptogram = yubihsm.DeriveCryptogram(yubihsm.DeriveHostCryptogram, macKey, hostChallenge, create.CardChallenge)
	s.macChaining = yubihsm.ChainedCMAC(s.macKey, s.macChaining, cmd.ID(), cmd.SessionID, cmd.HostCryptogram[:])
	copy(cmd.CMAC[:], s.macChaining[:])

	return &cmd, nil
}

// Authenticate performs the cryptographic exchange to authenticate with
// the YubiHSM2 and establish an encrypted communication channel. Each
// call opens a brand-new device session; any prior session state held
// by this object is discarded first.
//
// A failed authentication is terminal for the attempt: the partially
// derived keys are discarded and the object is left closed.
func (s *Session) Authenticate(ctx context.Context, conn Connector, options ...AuthenticationOption) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	// Clear out all keys when beginning authentication.
	s.session = session{}

	var config authConfig
	err := config.apply(s, options)
	if err != nil {
		return err
	}

	createSessionCmd, err := config.createSession()
	if err != nil {
		return err
	}

	var createSessionRsp yubihsm.CreateSessionResponse
	err = sendPlaintext(ctx, conn, &createSessionCmd, &createSessionRsp)
	if err != nil {
		return err
	}

	encKey, macKey := config.authKeys()
	authenticateSessionCmd, err := s.authenticateSession(encKey, macKey, createSessionCmd.HostChallenge, &createSessionRsp)
	if err != nil {
		s.session = session{state: stateClosed}
		return err
	}

	var authenticateSessionRsp yubihsm.AuthenticateSessionResponse
	err = sendPlaintext(ctx, conn, authenticateSessionCmd, &authenticateSessionRsp)
	if err != nil {
		s.session = session{state: stateClosed}
		return err
	}

	s.state = stateAuthenticated
	if s.log != nil {
		s.log.Debugf("session %d authenticated", s.sessionID)
	}
	return nil
}

// GetDeviceInfo retrieves the HSM's status information.
//
// This is the only command other than [Session.Authenticate] which can
// be called on an unauthenticated session, and the only command which
// can be called on either an authenticated _or_ unauthenticated session.
//
// If the session isn't authenticated then the returned device information
// itself is neither encrypted nor authenticated. It therefore should not
// be trusted; but this can be useful sometimes to e.g. lookup an HSM's
// configuration by its serial number prior to establishing a session:
//
//	var session Session
//	untrustedDevInfo, _ := session.GetDeviceInfo(ctx, conn)
//	authKey, _ := keys[untrustedDevInfo.Serial]
//	_ = session.Authenticate(ctx, conn, WithAuthenticationKeys(authKey))
//	trustedDevInfo, _ := session.GetDeviceInfo(ctx, conn)
//	if trustedDevInfo.Serial != untrustedDevInfo.Serial {
//		println("Lies!")
//	}
func (s *Session) GetDeviceInfo(ctx context.Context, conn Connector) (DeviceInfo, error) {
	var (
		cmd yubihsm.DeviceInfoCommand
		rsp yubihsm.DeviceInfoResponse
	)

	// sendCommand checks the authentication state as its first step
	// after locking the session. Fallback to an unencrypted request
	// if the session isn't carrying commands.

	trusted := true
	err := s.sendCommand(ctx, conn, false, cmd, &rsp)
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrSessionClosed) {
		trusted = false
		err = sendPlaintext(ctx, conn, cmd, &rsp)
	}
	if err != nil {
		return DeviceInfo{}, err
	}

	return DeviceInfo{
		Version:    rsp.Version,
		Serial:     rsp.Serial,
		LogStore:   rsp.LogStore,
		LogLines:   rsp.LogLines,
		Algorithms: rsp.Algorithms,
		Trusted:    trusted,
	}, nil
}

// Close cleanly shuts the session down: the device is told to drop the
// session and all derived key material is zeroed. A closed [Session]
// rejects further commands with [ErrSessionClosed] until it is
// reauthenticated.
//
// Close is idempotent; closing an already-closed session does nothing
// and reports no error.
//
// This does not implement the standard [io.Closer] interface since a
// [context.Context] and [Connector] must be provided to send a close
// message to the HSM.
func (s *Session) Close(ctx context.Context, conn Connector) error {
	s.lock.Lock()
	if s.state != stateAuthenticated {
		// Nothing to tell the device; just ensure the keys are
		// gone.
		s.session = session{state: stateClosed}
		s.lock.Unlock()
		return nil
	}
	s.lock.Unlock()

	// The reset flag makes encryptCommand zero the keys and mark the
	// session closed as soon as the close message is encrypted.
	return s.sendCommand(ctx, conn, true, yubihsm.CloseSessionCommand{}, yubihsm.CloseSessionResponse{})
}

// Ping sends a [ping] message to the YubiHSM2 and returns the received
// [pong] response. It uses the [Echo command] to send and receive data.
//
// The most common use of the echo command is to implement a session
// keepalive heartbeat; to mimic the yubihsm-shell's behavior use:
//
//	err = session.Ping(ctx, conn, 0xff)
//
// [Echo command]: https://developers.yubico.com/YubiHSM2/Commands/Echo.html
func (s *Session) Ping(ctx context.Context, conn Connector, data ...byte) error {
	pingPong := yubihsm.Echo(data)
	err := s.sendCommand(ctx, conn, false, pingPong, &pingPong)
	if err != nil {
		return err
	} else if !bytes.Equal(data, pingPong) {
		return Error("pong response incorrect")
	}

	return nil
}

// abort poisons the session after a failure which may have left it
// desynchronized from the device or under active attack. All key
// material is zeroed; the session rejects everything thereafter.
func (s *Session) abort(reason error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == stateClosed {
		return
	}
	s.session = session{state: stateClosed}
	if s.log != nil {
		s.log.Warnf("closing session: %v", reason)
	}
}

// sendCommand encrypts a session message command, transmits it via the
// provided connector, and then decrypts the response.
//
// It must be called with the session unlocked.
func (s *Session) sendCommand(ctx context.Context, conn Connector, reset bool, cmd yubihsm.Command, rsp yubihsm.Response) error {
	// While the largest command supported is ~2kB, this should be
	// large enough for the majority of commands sent without causing
	// too much heap spillage.
	var buf [256]byte

	// Encrypt the command, return the encrypted command and the
	// decryption state. This step locks the session and consumes the
	// message counter.
	decrypt, message, err := s.encryptCommand(cmd, buf[:0], reset)
	if err != nil {
		return err
	}

	// After this point the session is unlocked and the counter for
	// this exchange is spent. A transport failure or a response
	// which fails verification leaves the session desynchronized
	// from the device, so either closes the session for good.

	message, err = conn.SendCommand(ctx, message)
	if err != nil {
		s.abort(err)
		return err
	}

	message, err = decrypt.decryptSessionResponse(message)
	if err != nil {
		var devErr DeviceError
		if errors.As(err, &devErr) {
			// The device rejected the session message with a
			// plaintext status echo; no MAC was exchanged. The
			// session state is intact unless the device no
			// longer recognizes the session at all.
			if devErr == ErrSessionExpired {
				s.abort(err)
			}
			return err
		}
		s.abort(err)
		return err
	}

	// Validate the inner message header correctness.
	err = yubihsm.ParseResponse(cmd.ID(), rsp, message)
	if errors.Is(err, ErrSessionExpired) {
		s.abort(err)
	}
	return err
}

func (s *Session) encryptCommand(cmd yubihsm.Command, buf []byte, reset bool) (*decryptResponse, []byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch {
	case s.state == stateClosed:
		return nil, nil, ErrSessionClosed
	case s.state != stateAuthenticated:
		return nil, nil, ErrNotAuthenticated
	case s.messageCounter >= maxMessagesBeforeRekey:
		return nil, nil, ErrReauthenticationRequired
	}

	// Consume the counter before anything is encrypted: no error
	// path below can reuse its value on a later message.
	counter := s.messageCounter
	s.messageCounter++

	// We serialize and encrypt the command message in-place within a
	// session message envelope. The overhead consists of the 4-byte
	// header and trailer of padding and 8-byte MAC.
	message := cmd.Serialize(buf[:sessionHeaderLength])

	// Pad the inner message to a multiple of the AES block size.
	// Padding consists of a single 0x80 byte followed by zeroes.
	//
	// To optimize memory usage, additionally reserve space for the
	// appended MAC.
	const pad = "\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"
	padding := aes.BlockSize - len(message[sessionHeaderLength:])%aes.BlockSize
	message = append(message, pad[:padding+macLength]...)

	// Construct the session message header in-place. This must be
	// done after inner message serialization and padding because
	// the total length must be known.
	yubihsm.Put8(message[0:], yubihsm.CommandSessionMessage)
	yubihsm.Put16(message[1:], len(message)-yubihsm.HeaderLength)
	yubihsm.Put8(message[3:], s.sessionID)

	// Encrypt the session message and insert the CMAC.
	block, iv := s.encryptThenMAC(message, counter)

	decrypt := &decryptResponse{s.rmacKey, s.macChaining, block, iv, s.sessionID}

	// Closing the session discards the keys the moment the close
	// message is built; the response is still verifiable through
	// the state captured in [decrypt].
	if reset {
		s.session = session{state: stateClosed}
	}

	return decrypt, message, nil
}

// encryptThenMAC encrypts the message in-place then computes the message
// CMAC and writes it in the final 8 bytes of the message. Space for the
// header and MAC must be allocated at the front and back.
//
// Returns the AES block cipher and IV which can be used to decrypt the
// response.
func (s *session) encryptThenMAC(message []byte, counter uint32) (cipher.Block, []byte) {
	// Create the CBC IV: 16 bytes; 12 zeroes and 32-bit counter. The
	// serialized counter is encrypted with the session encryption
	// key to result in the IV.
	var iv [aes.BlockSize]byte
	yubihsm.Put32(iv[len(iv)-4:], counter)

	block, _ := aes.NewCipher(s.encryptionKey[:])
	block.Encrypt(iv[:], iv[:])

	// Encrypt the serialized and padded inner message.
	inner := message[sessionHeaderLength : len(message)-macLength]
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(inner, inner)

	// The appended MAC is the first 8 bytes of the truncated session
	// chaining MAC.
	s.macChaining = yubihsm.ChainedCMAC(s.macKey, s.macChaining, yubihsm.CommandSessionMessage, s.sessionID, inner)
	copy(message[len(message)-macLength:], s.macChaining[:macLength])

	return block, iv[:]
}

// decryptResponse holds the session state needed to decrypt a response
// message from the HSM. Each instance is valid for a single invocation
// of [Session.sendCommand] and should not be reused.
type decryptResponse struct {
	rmacKey     SessionKey
	macChaining SessionKey
	block       cipher.Block
	iv          []byte
	sessionID   byte
}

// decryptSessionResponse verifies and decrypts a response message from
// the YubiHSM2 and returns the inner message. Verification strictly
// precedes decryption: structural checks first, then the MAC over the
// still-encrypted contents, and only then is the ciphertext touched.
// The message is decrypted in-place, so the returned plaintext aliases
// the incoming message buffer.
func (d *decryptResponse) decryptSessionResponse(message []byte) ([]byte, error) {
	if len(message) == yubihsm.HeaderLength+1 {
		if cmdID, msgLen := yubihsm.ParseHeader(message); cmdID == yubihsm.CommandErrorStatus && msgLen == 1 {
			// The device rejected the session message outright
			// and answered with a plaintext error frame. By
			// protocol definition there is no MAC to verify.
			// Anything 0x7f-tagged but not exactly a one-byte
			// error frame falls through to the structural checks.
			return nil, yubihsm.ParseDeviceError(message)
		}
	}

	if len(message) < sessionHeaderLength+yubihsm.HeaderLength+macLength {
		// Four bytes in outer session message, three bytes inner,
		// eight bytes of MAC.
		return nil, ErrInvalidMessage
	} else if len(message)%aes.BlockSize != sessionHeaderLength+macLength {
		// Padding of the inner message is incorrect.
		return nil, ErrInvalidMessage
	}

	msgCmdID, msgLen := yubihsm.ParseHeader(message)
	switch {
	case msgCmdID != yubihsm.ResponseSessionMessage:
		return nil, ErrInvalidMessage

	case msgLen != len(message)-yubihsm.HeaderLength:
		return nil, ErrInvalidMessage

	case message[yubihsm.HeaderLength] != d.sessionID:
		return nil, ErrIncorrectMAC
	}

	// Verify the response MAC by comparing it to the expected value.
	inner := message[sessionHeaderLength : len(message)-macLength]
	validMAC := yubihsm.ChainedCMAC(d.rmacKey, d.macChaining, yubihsm.ResponseSessionMessage, d.sessionID, inner)
	recvedMAC := message[len(message)-macLength:]
	if subtle.ConstantTimeCompare(validMAC[:macLength], recvedMAC) != 1 {
		return nil, ErrIncorrectMAC
	}

	// Decrypt the inner response message.
	cipher.NewCBCDecrypter(d.block, d.iv).CryptBlocks(inner, inner)
	return inner, nil
}
