// Package mockhsm implements an in-process YubiHSM2 simulator.
//
// The [Device] speaks the device side of the encrypted session
// protocol: it answers create-session and authenticate-session
// exchanges, verifies and decrypts session messages, and executes a
// useful subset of the device commands against in-memory state. It
// plugs directly into the client as a Connector, so tests exercise the
// full cryptographic path without hardware:
//
//	device := mockhsm.New()
//	var session yubihsm.Session
//	err := session.Authenticate(ctx, device)
//
// The simulator holds keys in plain memory and uses no secure storage;
// it is for testing only.
package mockhsm

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"io"
	"sync"

	"github.com/pion/logging"
	"golang.org/x/crypto/pbkdf2"

	hsm "github.com/Sntx626/yubihsm"
	yubihsm "github.com/Sntx626/yubihsm/internal"
)

const (
	maxSessions = 16

	// The default authentication key present on a factory-reset
	// device.
	defaultAuthKeyID hsm.ObjectID = 1
	defaultPassword               = "password"

	defaultSerial uint32 = 271828
)

// authenticationKey is a stored symmetric key set usable to open
// sessions.
type authenticationKey struct {
	enc yubihsm.SessionKey
	mac yubihsm.SessionKey
}

// deviceSession is the device-side half of an established session. It
// mirrors the client's derived keys, MAC chain, and message counter.
type deviceSession struct {
	encKey      yubihsm.SessionKey
	macKey      yubihsm.SessionKey
	rmacKey     yubihsm.SessionKey
	macChaining yubihsm.SessionKey

	// hostCryptogram is the value the client must present in its
	// authenticate-session message.
	hostCryptogram yubihsm.Cryptogram

	counter       uint32
	commands      int
	authenticated bool
}

// Device simulates a YubiHSM2 behind the client's Connector seam.
//
// A Device serializes all commands through an internal lock, matching
// the strictly sequential hardware. The zero value is not usable; call
// [New].
type Device struct {
	lock sync.Mutex
	log  logging.LeveledLogger
	rand io.Reader

	serial   uint32
	authKeys map[hsm.ObjectID]authenticationKey
	objects  map[objectKey]*object
	sessions [maxSessions]*deviceSession

	// Fault injection knobs, settable via options.
	fixedChallenge  *yubihsm.Challenge
	breakCryptogram bool
	expireAfter     int
}

// Option configures a [Device] during [New].
type Option func(*Device)

// WithSerialNumber sets the device's reported serial number.
func WithSerialNumber(serial uint32) Option {
	return func(d *Device) {
		d.serial = serial
	}
}

// WithAuthenticationKey stores an additional authentication key set
// under the given object ID. The factory-default key set under ID 1 is
// always present.
func WithAuthenticationKey(keyID hsm.ObjectID, encryptionKey, macKey hsm.SessionKey) Option {
	return func(d *Device) {
		d.authKeys[keyID] = authenticationKey{encryptionKey, macKey}
	}
}

// WithRandReader substitutes the randomness source used for challenges,
// key generation, and the pseudo-random command. Tests can supply a
// deterministic stream.
func WithRandReader(r io.Reader) Option {
	return func(d *Device) {
		d.rand = r
	}
}

// WithCardChallenge pins the card challenge returned from every
// create-session exchange, making the derived session keys a pure
// function of the host's challenge.
func WithCardChallenge(challenge [8]byte) Option {
	return func(d *Device) {
		c := yubihsm.Challenge(challenge)
		d.fixedChallenge = &c
	}
}

// WithCorruptedCardCryptogram makes the device return a card cryptogram
// which fails verification, as a man-in-the-middle or a device holding
// the wrong key would.
func WithCorruptedCardCryptogram() Option {
	return func(d *Device) {
		d.breakCryptogram = true
	}
}

// WithSessionExpiry expires every session after it has carried the
// given number of session messages, simulating the device's inactivity
// timeout.
func WithSessionExpiry(afterCommands int) Option {
	return func(d *Device) {
		d.expireAfter = afterCommands
	}
}

// WithLoggerFactory enables logging of the device's command handling.
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(d *Device) {
		d.log = factory.NewLogger("mock-hsm")
	}
}

// New creates a simulated device holding only the factory-default
// authentication key, the way a factory-reset YubiHSM2 ships.
func New(options ...Option) *Device {
	d := &Device{
		rand:     rand.Reader,
		serial:   defaultSerial,
		authKeys: map[hsm.ObjectID]authenticationKey{},
		objects:  map[objectKey]*object{},
	}

	key := pbkdf2.Key([]byte(defaultPassword), []byte("Yubico"), 10_000, 2*yubihsm.SessionKeyLen, sha256.New)
	var auth authenticationKey
	copy(auth.enc[:], key)
	copy(auth.mac[:], key[yubihsm.SessionKeyLen:])
	d.authKeys[defaultAuthKeyID] = auth

	for _, option := range options {
		option(d)
	}
	return d
}

// SendCommand executes a single serialized command and returns the
// serialized response, implementing the client's Connector interface.
func (d *Device) SendCommand(ctx context.Context, cmd []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if len(cmd) < yubihsm.HeaderLength {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand), nil
	}
	cmdID, cmdLen := yubihsm.ParseHeader(cmd)
	if cmdLen != len(cmd)-yubihsm.HeaderLength {
		return errorFrame(yubihsm.ErrDeviceWrongLength), nil
	}
	payload := cmd[yubihsm.HeaderLength:]

	if d.log != nil {
		d.log.Tracef("command %v, %d byte payload", cmdID, len(payload))
	}

	//nolint:exhaustive
	switch cmdID {
	case yubihsm.CommandCreateSession:
		return d.createSession(payload), nil
	case yubihsm.CommandAuthenticateSession:
		return d.authenticateSession(payload), nil
	case yubihsm.CommandSessionMessage:
		return d.sessionMessage(payload), nil

	// The device answers these in plaintext outside a session, too.
	case yubihsm.CommandEcho:
		return frame(yubihsm.ResponseEcho, payload), nil
	case yubihsm.CommandGetDeviceInfo:
		return d.deviceInfo(), nil

	default:
		return errorFrame(yubihsm.ErrDeviceUnknownCommand), nil
	}
}

// createSession opens a session slot and performs the device side of
// the challenge/response key derivation.
func (d *Device) createSession(payload []byte) []byte {
	if len(payload) != 2+len(yubihsm.Challenge{}) {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	var keySetID hsm.ObjectID
	yubihsm.Parse16(payload, 0, &keySetID)
	auth, ok := d.authKeys[keySetID]
	if !ok {
		return errorFrame(yubihsm.ErrDeviceObjectNotFound)
	}

	sessionID := -1
	for i, session := range d.sessions {
		if session == nil {
			sessionID = i
			break
		}
	}
	if sessionID < 0 {
		return errorFrame(yubihsm.ErrDeviceSessionsFull)
	}

	var hostChallenge, cardChallenge yubihsm.Challenge
	copy(hostChallenge[:], payload[2:])
	if d.fixedChallenge != nil {
		cardChallenge = *d.fixedChallenge
	} else if _, err := io.ReadFull(d.rand, cardChallenge[:]); err != nil {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}

	session := &deviceSession{
		encKey:  yubihsm.DeriveSessionKey(yubihsm.DeriveEncKey, auth.enc, hostChallenge, cardChallenge),
		macKey:  yubihsm.DeriveSessionKey(yubihsm.DeriveMacKey, auth.mac, hostChallenge, cardChallenge),
		rmacKey: yubihsm.DeriveSessionKey(yubihsm.DeriveRmacKey, auth.mac, hostChallenge, cardChallenge),
	}
	cardCryptogram := yubihsm.DeriveCryptogram(yubihsm.DeriveCardCryptogram, session.macKey, hostChallenge, cardChallenge)
	session.hostCryptogram = yubihsm.DeriveCryptogram(yubihsm.DeriveHostCryptogram, session.macKey, hostChallenge, cardChallenge)
	d.sessions[sessionID] = session

	if d.breakCryptogram {
		cardCryptogram[0] ^= 0x40
	}

	out := frameHeader(yubihsm.ResponseCreateSession, 1+len(cardChallenge)+len(cardCryptogram))
	out = yubihsm.Append8(out, sessionID)
	out = yubihsm.Append(out, cardChallenge[:])
	return yubihsm.Append(out, cardCryptogram[:])
}

// authenticateSession verifies the client's proof of key possession and
// activates the session.
func (d *Device) authenticateSession(payload []byte) []byte {
	if len(payload) != 1+len(yubihsm.Cryptogram{})+yubihsm.MACLen {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	sessionID := payload[0]
	session := d.session(sessionID)
	if session == nil || session.authenticated {
		return errorFrame(yubihsm.ErrDeviceSessionExpired)
	}

	hostCryptogram := payload[1:9]
	mac := payload[9:]

	// The authenticate-session message is MACed from a zero chain;
	// its full CMAC seeds the session's chaining value.
	chain := yubihsm.ChainedCMAC(session.macKey, yubihsm.SessionKey{}, yubihsm.CommandAuthenticateSession, sessionID, hostCryptogram)
	if subtle.ConstantTimeCompare(chain[:yubihsm.MACLen], mac) != 1 {
		d.dropSession(sessionID)
		return errorFrame(yubihsm.ErrDeviceWrongAuthKey)
	}
	if subtle.ConstantTimeCompare(session.hostCryptogram[:], hostCryptogram) != 1 {
		d.dropSession(sessionID)
		return errorFrame(yubihsm.ErrDeviceWrongAuthKey)
	}

	session.macChaining = chain
	session.counter = 1
	session.authenticated = true
	if d.log != nil {
		d.log.Debugf("session %d authenticated", sessionID)
	}

	return frame(yubihsm.ResponseAuthenticateSession, nil)
}

// sessionMessage verifies, decrypts, executes, and re-encrypts one
// session message exchange.
func (d *Device) sessionMessage(payload []byte) []byte {
	if len(payload) < 1+aesBlockSize+yubihsm.MACLen {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	sessionID := payload[0]
	session := d.session(sessionID)
	if session == nil || !session.authenticated {
		return errorFrame(yubihsm.ErrDeviceSessionExpired)
	}
	if d.expireAfter > 0 && session.commands >= d.expireAfter {
		d.dropSession(sessionID)
		return errorFrame(yubihsm.ErrDeviceSessionExpired)
	}

	ciphertext := payload[1 : len(payload)-yubihsm.MACLen]
	mac := payload[len(payload)-yubihsm.MACLen:]
	if len(ciphertext)%aesBlockSize != 0 {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	chain := yubihsm.ChainedCMAC(session.macKey, session.macChaining, yubihsm.CommandSessionMessage, sessionID, ciphertext)
	if subtle.ConstantTimeCompare(chain[:yubihsm.MACLen], mac) != 1 {
		d.dropSession(sessionID)
		return errorFrame(yubihsm.ErrDeviceWrongAuthKey)
	}
	session.macChaining = chain
	session.commands++

	block, iv := sessionCipher(session.encKey, session.counter)
	session.counter++
	inner, ok := decryptMessage(block, iv, ciphertext)
	if !ok {
		d.dropSession(sessionID)
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}

	rsp, closeSession := d.dispatch(inner)

	// The response reuses the command's IV and is MACed with the
	// response key against the updated chain; the chain itself only
	// advances on commands.
	sealed := encryptMessage(block, iv, pad(rsp))
	out := frameHeader(yubihsm.ResponseSessionMessage, 1+len(sealed)+yubihsm.MACLen)
	out = yubihsm.Append8(out, sessionID)
	out = yubihsm.Append(out, sealed)
	rspMAC := yubihsm.ChainedCMAC(session.rmacKey, session.macChaining, yubihsm.ResponseSessionMessage, sessionID, sealed)
	out = yubihsm.Append(out, rspMAC[:yubihsm.MACLen])

	if closeSession {
		d.dropSession(sessionID)
	}
	return out
}

func (d *Device) session(id byte) *deviceSession {
	if int(id) >= len(d.sessions) {
		return nil
	}
	return d.sessions[id]
}

func (d *Device) dropSession(id byte) {
	if int(id) < len(d.sessions) {
		d.sessions[id] = nil
	}
}
