package yubihsm

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// LabelLen is the fixed width of an object label. Shorter labels are
// zero padded on the wire.
const LabelLen = 40

// PublicKey is the strongly-typed [crypto.PublicKey].
type PublicKey interface {
	Equal(x crypto.PublicKey) bool
}

func makeCmd(out []byte, c Command, l int) []byte {
	return append(out, byte(c.ID()), byte(l>>8), byte(l))
}

func makeObjectDataCmd(out []byte, c Command, keyID ObjectID, data []byte) []byte {
	// 2 byte key ID plus data
	out = makeCmd(out, c, 2+len(data))
	return Append(Append16(out, keyID), data)
}

func appendLabel(out []byte, label string) []byte {
	var l [LabelLen]byte
	copy(l[:], label)
	return append(out, l[:]...)
}

func Mgf1AlgorithmID(mgf1 crypto.Hash) AlgorithmID {
	//nolint:exhaustive
	switch mgf1 {
	case crypto.SHA1:
		return AlgorithmMGF1SHA1
	case crypto.SHA256:
		return AlgorithmMGF1SHA256
	case crypto.SHA384:
		return AlgorithmMGF1SHA384
	case crypto.SHA512:
		return AlgorithmMGF1SHA512
	default:
		// The HSM will flag an error
		return 0
	}
}

type EmptyResponse struct{}

func (EmptyResponse) Parse(b []byte) error {
	if len(b) != 0 {
		return errInvalidLength
	}
	return nil
}

type sliceResponse []byte

func (s *sliceResponse) Parse(b []byte) error {
	*s = b
	return nil
}

// RawCommand carries an opaque payload for an arbitrary command code.
// It is the wire-side half of the channel's opaque execute entry point;
// the device interprets the payload, this package does not.
type RawCommand struct {
	Code    CommandID
	Payload []byte
}

func (c *RawCommand) ID() CommandID {
	return c.Code
}

func (c *RawCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, c, len(c.Payload))
	return Append(out, c.Payload)
}

// RawResponse captures an opaque response payload.
type RawResponse []byte

func (r *RawResponse) Parse(b []byte) error {
	*r = b
	return nil
}

// Echo command and response type to/from YubiHSM2.
type Echo []byte //nolint:recvcheck

func (Echo) ID() CommandID {
	return CommandEcho
}

func (e Echo) Serialize(out []byte) []byte {
	out = makeCmd(out, e, len(e))
	return Append(out, e)
}

func (e *Echo) Parse(b []byte) error {
	*e = b
	return nil
}

type CreateSessionCommand struct {
	KeySetID      ObjectID
	HostChallenge Challenge
}

func (*CreateSessionCommand) ID() CommandID {
	return CommandCreateSession
}

func (c *CreateSessionCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, c, 2+len(c.HostChallenge))
	return Append(Append16(out, c.KeySetID), c.HostChallenge[:])
}

type CreateSessionResponse struct {
	SessionID      byte
	CardChallenge  Challenge
	CardCryptogram Cryptogram
}

func (r *CreateSessionResponse) Parse(b []byte) error {
	if len(b) != 1+len(r.CardChallenge)+len(r.CardCryptogram) {
		return errInvalidLength
	}

	r.SessionID = b[0]
	copy(r.CardChallenge[:], b[1:9])
	copy(r.CardCryptogram[:], b[9:17])

	return nil
}

type AuthenticateSessionCommand struct {
	SessionID      byte
	HostCryptogram Cryptogram
	CMAC           [MACLen]byte
}

func (c *AuthenticateSessionCommand) ID() CommandID {
	return CommandAuthenticateSession
}

func (c *AuthenticateSessionCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, c, 1+len(c.HostCryptogram)+len(c.CMAC))
	out = Append8(out, c.SessionID)
	out = Append(out, c.HostCryptogram[:])
	return Append(out, c.CMAC[:])
}

type AuthenticateSessionResponse = EmptyResponse

type CloseSessionCommand struct{}

func (c CloseSessionCommand) ID() CommandID {
	return CommandCloseSession
}

func (c CloseSessionCommand) Serialize(out []byte) []byte {
	return makeCmd(out, c, 0)
}

type CloseSessionResponse = EmptyResponse

type DeviceInfoCommand struct{}

func (DeviceInfoCommand) ID() CommandID {
	return CommandGetDeviceInfo
}

func (d DeviceInfoCommand) Serialize(out []byte) []byte {
	return makeCmd(out, d, 0)
}

type DeviceInfoResponse struct {
	Version    string
	Serial     uint32
	LogStore   uint8
	LogLines   uint8
	Algorithms uint64
}

func (r *DeviceInfoResponse) Parse(b []byte) error {
	if len(b) < 9 {
		return errInvalidLength
	}

	r.Version = fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])
	Parse32(b, 3, &r.Serial)
	r.LogStore = b[7]
	r.LogLines = b[8]
	r.Algorithms = 0
	for _, a := range b[9:] {
		if AlgorithmID(a) >= algorithmMax {
			return errUnsupportedAlgorithm
		}
		r.Algorithms |= 1 << a
	}

	return nil
}

type GetPublicKeyCommand struct {
	KeyID ObjectID
}

func (*GetPublicKeyCommand) ID() CommandID {
	return CommandGetPublicKey
}

func (g *GetPublicKeyCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, g, 2)
	return Append16(out, g.KeyID)
}

type GetPublicKeyResponse struct {
	PublicKey interface{ Equal(x crypto.PublicKey) bool }
}

//nolint:cyclop
func (g *GetPublicKeyResponse) Parse(b []byte) error {
	if len(b) < 1 {
		return errInvalidLength
	}

	a := AlgorithmID(b[0])
	b = b[1:]

	//nolint:exhaustive
	switch a {
	case AlgorithmED25519:
		if len(b) != ed25519.PublicKeySize {
			return errInvalidEd25519
		}
		g.PublicKey = ed25519.PublicKey(b)
		return nil

	case AlgorithmRSA2048:
		return g.parsePublicKeyRSA(b, 2048/8)
	case AlgorithmRSA3072:
		return g.parsePublicKeyRSA(b, 3072/8)
	case AlgorithmRSA4096:
		return g.parsePublicKeyRSA(b, 4096/8)

	case AlgorithmECP224:
		return g.parsePublicKeyECDSA(b, elliptic.P224())
	case AlgorithmECP256:
		return g.parsePublicKeyECDSA(b, elliptic.P256())
	case AlgorithmECP384:
		return g.parsePublicKeyECDSA(b, elliptic.P384())
	case AlgorithmECP521:
		return g.parsePublicKeyECDSA(b, elliptic.P521())

	default:
		return Errorf("unsupported public key algorithm: %v", a)
	}
}

func (g *GetPublicKeyResponse) parsePublicKeyRSA(b []byte, bytes int) error {
	if len(b) != bytes {
		return errInvalidRSA
	}

	var n big.Int
	n.SetBytes(b)
	g.PublicKey = &rsa.PublicKey{
		N: &n,
		E: 65537,
	}

	return nil
}

func (g *GetPublicKeyResponse) parsePublicKeyECDSA(b []byte, curve elliptic.Curve) error {
	var x, y big.Int
	x.SetBytes(b[:len(b)/2])
	y.SetBytes(b[len(b)/2:])
	if !curve.IsOnCurve(&x, &y) {
		return errInvalidECDSA
	}

	g.PublicKey = &ecdsa.PublicKey{
		Curve: curve,
		X:     &x,
		Y:     &y,
	}

	return nil
}

type GenerateAsymmetricKeyCommand struct {
	KeyID        ObjectID
	Label        string
	Domains      uint16
	Capabilities uint64
	Algorithm    AlgorithmID
}

func (*GenerateAsymmetricKeyCommand) ID() CommandID {
	return CommandGenerateAsymmetricKey
}

func (g *GenerateAsymmetricKeyCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, g, 2+LabelLen+2+8+1)
	out = Append16(out, g.KeyID)
	out = appendLabel(out, g.Label)
	out = Append16(out, g.Domains)
	out = Append64(out, g.Capabilities)
	return Append8(out, g.Algorithm)
}

type GenerateAsymmetricKeyResponse struct {
	KeyID ObjectID
}

func (g *GenerateAsymmetricKeyResponse) Parse(b []byte) error {
	if len(b) != 2 {
		return errInvalidLength
	}
	Parse16(b, 0, &g.KeyID)
	return nil
}

type DeleteObjectCommand struct {
	ObjectID ObjectID
	Type     TypeID
}

func (*DeleteObjectCommand) ID() CommandID {
	return CommandDeleteObject
}

func (d *DeleteObjectCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, d, 3)
	out = Append16(out, d.ObjectID)
	return Append8(out, d.Type)
}

type DeleteObjectResponse = EmptyResponse

type GetPseudoRandomCommand struct {
	Length uint16
}

func (*GetPseudoRandomCommand) ID() CommandID {
	return CommandGetPseudoRandom
}

func (g *GetPseudoRandomCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, g, 2)
	return Append16(out, g.Length)
}

type GetPseudoRandomResponse = sliceResponse

type ListObjectsFilter func([]byte) []byte

type ListObjectsCommand []ListObjectsFilter

// https://developers.yubico.com/YubiHSM2/Commands/List_Objects.html
const (
	filterID           = iota + 1 // 2 bytes
	filterType                    // 1 byte
	filterDomains                 // 2 bytes
	filterCapabilities            // 8 bytes
	filterAlgorithm               // 1 byte
	filterLabel                   // 40 bytes
)

func TypeFilter(typeID TypeID) ListObjectsFilter {
	return func(b []byte) []byte {
		return append(b, filterType, byte(typeID))
	}
}

func LabelFilter(label string) ListObjectsFilter {
	return func(b []byte) []byte {
		return appendLabel(append(b, filterLabel), label)
	}
}

func (l ListObjectsCommand) ID() CommandID {
	return CommandListObjects
}

func (l ListObjectsCommand) Serialize(out []byte) []byte {
	list := makeCmd(out, l, 0)
	for _, filter := range l {
		list = filter(list)
	}

	Put16(list[len(out)+1:], len(list)-len(out)-HeaderLength)
	return list
}

type ListedObject struct {
	Object   ObjectID
	Type     TypeID
	Sequence uint8
}

type ListObjectsResponse []ListedObject

func (l *ListObjectsResponse) Parse(b []byte) error {
	// 2 byte Object ID, 1 byte Type, 1 byte Sequence
	*l = make(ListObjectsResponse, len(b)/4)

	for i := range *l {
		object := &(*l)[i]
		Parse16(b, 0, &object.Object)
		Parse8(b, 2, &object.Type)
		Parse8(b, 3, &object.Sequence)
		b = b[4:]
	}

	if len(b) != 0 {
		return errTrailingBytes
	}
	return nil
}

type SignECDSACommand struct {
	KeyID  ObjectID
	Digest []byte
}

func (s *SignECDSACommand) ID() CommandID {
	return CommandSignECDSA
}

func (s *SignECDSACommand) Serialize(out []byte) []byte {
	return makeObjectDataCmd(out, s, s.KeyID, s.Digest)
}

type SignEdDSACommand struct {
	KeyID   ObjectID
	Message []byte
}

func (s *SignEdDSACommand) ID() CommandID {
	return CommandSignEdDSA
}

func (s *SignEdDSACommand) Serialize(out []byte) []byte {
	return makeObjectDataCmd(out, s, s.KeyID, s.Message)
}

type SignPKCS1v15Command struct {
	KeyID  ObjectID
	Digest []byte
}

func (s *SignPKCS1v15Command) ID() CommandID {
	return CommandSignPKCS1v15
}

func (s *SignPKCS1v15Command) Serialize(out []byte) []byte {
	return makeObjectDataCmd(out, s, s.KeyID, s.Digest)
}

type SignPSSCommand struct {
	KeyID   ObjectID
	MGF1    crypto.Hash
	SaltLen uint16
	Digest  []byte
}

func (s *SignPSSCommand) ID() CommandID {
	return CommandSignPSS
}

func (s *SignPSSCommand) Serialize(out []byte) []byte {
	out = makeCmd(out, s, 2+1+2+len(s.Digest))
	out = Append16(out, s.KeyID)
	out = Append8(out, Mgf1AlgorithmID(s.MGF1))
	out = Append16(out, s.SaltLen)
	return Append(out, s.Digest)
}

type SignResponse = sliceResponse

type DecryptPKCS1v15Command struct {
	KeyID      ObjectID
	CipherText []byte
}

func (d *DecryptPKCS1v15Command) ID() CommandID {
	return CommandDecryptPKCS1v15
}

func (d *DecryptPKCS1v15Command) Serialize(out []byte) []byte {
	return makeObjectDataCmd(out, d, d.KeyID, d.CipherText)
}

type DecryptOAEPCommand struct {
	KeyID      ObjectID
	MGF1       crypto.Hash
	LabelHash  crypto.Hash
	CipherText []byte
	Label      []byte
}

func (d *DecryptOAEPCommand) ID() CommandID {
	return CommandDecryptOAEP
}

func (d *DecryptOAEPCommand) Serialize(out []byte) []byte {
	digest := d.LabelHash.New()
	_, _ = digest.Write(d.Label)

	out = makeCmd(out, d, 2+1+len(d.CipherText)+digest.Size())
	out = Append16(out, d.KeyID)
	out = Append8(out, Mgf1AlgorithmID(d.MGF1))
	out = Append(out, d.CipherText)
	return digest.Sum(out)
}

type DecryptResponse = sliceResponse
