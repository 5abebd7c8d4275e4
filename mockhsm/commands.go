package mockhsm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"io"
	"slices"
	"strings"

	hsm "github.com/Sntx626/yubihsm"
	yubihsm "github.com/Sntx626/yubihsm/internal"
)

const aesBlockSize = aes.BlockSize

// objectKey identifies a stored object; the device namespaces objects
// by the (type, ID) pair.
type objectKey struct {
	id  hsm.ObjectID
	typ yubihsm.TypeID
}

// object is a stored asymmetric keypair.
type object struct {
	label        string
	algorithm    yubihsm.AlgorithmID
	domains      uint16
	capabilities uint64

	// One of ed25519.PrivateKey or *ecdsa.PrivateKey.
	private any
}

// dispatch executes a decrypted inner command and returns the plaintext
// inner response frame. The second return is set when the command shuts
// the session down.
func (d *Device) dispatch(inner []byte) ([]byte, bool) {
	if len(inner) < yubihsm.HeaderLength {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand), false
	}
	cmdID, cmdLen := yubihsm.ParseHeader(inner)
	if cmdLen != len(inner)-yubihsm.HeaderLength {
		return errorFrame(yubihsm.ErrDeviceWrongLength), false
	}
	payload := inner[yubihsm.HeaderLength:]

	if d.log != nil {
		d.log.Tracef("session command %v, %d byte payload", cmdID, len(payload))
	}

	//nolint:exhaustive
	switch cmdID {
	case yubihsm.CommandEcho:
		return frame(yubihsm.ResponseEcho, payload), false
	case yubihsm.CommandGetDeviceInfo:
		return d.deviceInfo(), false
	case yubihsm.CommandCloseSession:
		return frame(yubihsm.CommandResponse|yubihsm.CommandCloseSession, nil), true

	case yubihsm.CommandGenerateAsymmetricKey:
		return d.generateAsymmetricKey(payload), false
	case yubihsm.CommandGetPublicKey:
		return d.getPublicKey(payload), false
	case yubihsm.CommandSignEdDSA:
		return d.signEdDSA(payload), false
	case yubihsm.CommandSignECDSA:
		return d.signECDSA(payload), false
	case yubihsm.CommandListObjects:
		return d.listObjects(payload), false
	case yubihsm.CommandDeleteObject:
		return d.deleteObject(payload), false
	case yubihsm.CommandGetPseudoRandom:
		return d.getPseudoRandom(payload), false

	default:
		return errorFrame(yubihsm.ErrDeviceUnknownCommand), false
	}
}

// supportedAlgorithms is the algorithm list reported by get-device-info.
var supportedAlgorithms = []yubihsm.AlgorithmID{
	yubihsm.AlgorithmECP256,
	yubihsm.AlgorithmECP384,
	yubihsm.AlgorithmECP521,
	yubihsm.AlgorithmED25519,
	yubihsm.AlgorithmECDSASHA256,
	yubihsm.AlgorithmMGF1SHA256,
}

func (d *Device) deviceInfo() []byte {
	out := frameHeader(yubihsm.ResponseGetDeviceInfo, 9+len(supportedAlgorithms))
	// Firmware version, then serial number and log capacity.
	out = append(out, 2, 2, 0)
	out = yubihsm.Append(out, []byte{
		byte(d.serial >> 24), byte(d.serial >> 16), byte(d.serial >> 8), byte(d.serial),
	})
	out = append(out, 62, 62)
	for _, a := range supportedAlgorithms {
		out = yubihsm.Append8(out, a)
	}
	return out
}

func (d *Device) generateAsymmetricKey(payload []byte) []byte {
	if len(payload) != 2+yubihsm.LabelLen+2+8+1 {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	var keyID hsm.ObjectID
	yubihsm.Parse16(payload, 0, &keyID)
	label := strings.TrimRight(string(payload[2:2+yubihsm.LabelLen]), "\x00")
	var domains uint16
	yubihsm.Parse16(payload, 2+yubihsm.LabelLen, &domains)
	var capabilities uint64
	yubihsm.Parse64(payload, 2+yubihsm.LabelLen+2, &capabilities)
	algorithm := yubihsm.AlgorithmID(payload[len(payload)-1])

	var private any
	var err error
	switch algorithm {
	case yubihsm.AlgorithmED25519:
		_, private, err = ed25519.GenerateKey(d.rand)
	case yubihsm.AlgorithmECP224:
		private, err = ecdsa.GenerateKey(elliptic.P224(), d.rand)
	case yubihsm.AlgorithmECP256:
		private, err = ecdsa.GenerateKey(elliptic.P256(), d.rand)
	case yubihsm.AlgorithmECP384:
		private, err = ecdsa.GenerateKey(elliptic.P384(), d.rand)
	case yubihsm.AlgorithmECP521:
		private, err = ecdsa.GenerateKey(elliptic.P521(), d.rand)
	default:
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}
	if err != nil {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}

	if keyID == 0 {
		keyID = d.nextFreeID(yubihsm.TypeAsymmetricKey)
	}
	key := objectKey{keyID, yubihsm.TypeAsymmetricKey}
	if _, exists := d.objects[key]; exists {
		return errorFrame(yubihsm.ErrDeviceInvalidID)
	}

	d.objects[key] = &object{
		label:        label,
		algorithm:    algorithm,
		domains:      domains,
		capabilities: capabilities,
		private:      private,
	}
	if d.log != nil {
		d.log.Debugf("generated %v key %#x (%q)", algorithm, keyID, label)
	}

	out := frameHeader(yubihsm.CommandResponse|yubihsm.CommandGenerateAsymmetricKey, 2)
	return yubihsm.Append16(out, keyID)
}

func (d *Device) nextFreeID(typ yubihsm.TypeID) hsm.ObjectID {
	for id := hsm.ObjectID(0x100); ; id++ {
		if _, exists := d.objects[objectKey{id, typ}]; !exists {
			return id
		}
	}
}

func (d *Device) asymmetricKey(payload []byte) (*object, []byte) {
	if len(payload) < 2 {
		return nil, errorFrame(yubihsm.ErrDeviceWrongLength)
	}
	var keyID hsm.ObjectID
	yubihsm.Parse16(payload, 0, &keyID)
	obj, ok := d.objects[objectKey{keyID, yubihsm.TypeAsymmetricKey}]
	if !ok {
		return nil, errorFrame(yubihsm.ErrDeviceObjectNotFound)
	}
	return obj, nil
}

func (d *Device) getPublicKey(payload []byte) []byte {
	obj, errRsp := d.asymmetricKey(payload)
	if errRsp != nil {
		return errRsp
	}
	if len(payload) != 2 {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	var public []byte
	switch private := obj.private.(type) {
	case ed25519.PrivateKey:
		public = private.Public().(ed25519.PublicKey)

	case *ecdsa.PrivateKey:
		// Uncompressed point without the 0x04 prefix: X and Y,
		// each padded to the curve's byte width.
		size := (private.Curve.Params().BitSize + 7) / 8
		public = make([]byte, 2*size)
		private.X.FillBytes(public[:size])
		private.Y.FillBytes(public[size:])
	}

	out := frameHeader(yubihsm.CommandResponse|yubihsm.CommandGetPublicKey, 1+len(public))
	out = yubihsm.Append8(out, obj.algorithm)
	return yubihsm.Append(out, public)
}

func (d *Device) signEdDSA(payload []byte) []byte {
	obj, errRsp := d.asymmetricKey(payload)
	if errRsp != nil {
		return errRsp
	}

	private, ok := obj.private.(ed25519.PrivateKey)
	if !ok {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}

	sig := ed25519.Sign(private, payload[2:])
	return frame(yubihsm.CommandResponse|yubihsm.CommandSignEdDSA, sig)
}

func (d *Device) signECDSA(payload []byte) []byte {
	obj, errRsp := d.asymmetricKey(payload)
	if errRsp != nil {
		return errRsp
	}

	private, ok := obj.private.(*ecdsa.PrivateKey)
	if !ok {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}

	sig, err := ecdsa.SignASN1(d.rand, private, payload[2:])
	if err != nil {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}
	return frame(yubihsm.CommandResponse|yubihsm.CommandSignECDSA, sig)
}

func (d *Device) listObjects(payload []byte) []byte {
	// https://developers.yubico.com/YubiHSM2/Commands/List_Objects.html
	var (
		typeFilter  *yubihsm.TypeID
		labelFilter *string
		idFilter    *hsm.ObjectID
	)
	for len(payload) > 0 {
		switch payload[0] {
		case 1: // ID, 2 bytes
			if len(payload) < 3 {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			var id hsm.ObjectID
			yubihsm.Parse16(payload, 1, &id)
			idFilter = &id
			payload = payload[3:]

		case 2: // type, 1 byte
			if len(payload) < 2 {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			typ := yubihsm.TypeID(payload[1])
			typeFilter = &typ
			payload = payload[2:]

		case 6: // label, 40 bytes
			if len(payload) < 1+yubihsm.LabelLen {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			label := strings.TrimRight(string(payload[1:1+yubihsm.LabelLen]), "\x00")
			labelFilter = &label
			payload = payload[1+yubihsm.LabelLen:]

		case 3: // domains, 2 bytes: accepted, not filtered on
			if len(payload) < 3 {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			payload = payload[3:]

		case 4: // capabilities, 8 bytes: accepted, not filtered on
			if len(payload) < 9 {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			payload = payload[9:]

		case 5: // algorithm, 1 byte: accepted, not filtered on
			if len(payload) < 2 {
				return errorFrame(yubihsm.ErrDeviceWrongLength)
			}
			payload = payload[2:]

		default:
			return errorFrame(yubihsm.ErrDeviceMalformedCommand)
		}
	}

	var matched []objectKey
	for key, obj := range d.objects {
		if typeFilter != nil && key.typ != *typeFilter {
			continue
		}
		if idFilter != nil && key.id != *idFilter {
			continue
		}
		if labelFilter != nil && obj.label != *labelFilter {
			continue
		}
		matched = append(matched, key)
	}
	slices.SortFunc(matched, func(a, b objectKey) int {
		if a.id != b.id {
			return int(a.id) - int(b.id)
		}
		return int(a.typ) - int(b.typ)
	})

	out := frameHeader(yubihsm.CommandResponse|yubihsm.CommandListObjects, 4*len(matched))
	for _, key := range matched {
		out = yubihsm.Append16(out, key.id)
		out = yubihsm.Append8(out, key.typ)
		out = yubihsm.Append8(out, 0) // sequence
	}
	return out
}

func (d *Device) deleteObject(payload []byte) []byte {
	if len(payload) != 3 {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}

	var objectID hsm.ObjectID
	yubihsm.Parse16(payload, 0, &objectID)
	key := objectKey{objectID, yubihsm.TypeID(payload[2])}
	if _, ok := d.objects[key]; !ok {
		return errorFrame(yubihsm.ErrDeviceObjectNotFound)
	}

	delete(d.objects, key)
	return frame(yubihsm.CommandResponse|yubihsm.CommandDeleteObject, nil)
}

func (d *Device) getPseudoRandom(payload []byte) []byte {
	if len(payload) != 2 {
		return errorFrame(yubihsm.ErrDeviceWrongLength)
	}
	var n uint16
	yubihsm.Parse16(payload, 0, &n)

	out := frameHeader(yubihsm.CommandResponse|yubihsm.CommandGetPseudoRandom, int(n))
	random := make([]byte, n)
	if _, err := io.ReadFull(d.rand, random); err != nil {
		return errorFrame(yubihsm.ErrDeviceMalformedCommand)
	}
	return yubihsm.Append(out, random)
}

// frameHeader starts a response frame for a payload of the given length.
func frameHeader(cmdID yubihsm.CommandID, length int) []byte {
	out := make([]byte, 0, yubihsm.HeaderLength+length)
	out = yubihsm.Append8(out, cmdID)
	return yubihsm.Append16(out, length)
}

func frame(cmdID yubihsm.CommandID, payload []byte) []byte {
	return yubihsm.Append(frameHeader(cmdID, len(payload)), payload)
}

func errorFrame(e yubihsm.Error) []byte {
	return yubihsm.ErrorFrame(nil, e)
}

// sessionCipher builds the AES cipher and per-message CBC IV for the
// given message counter.
func sessionCipher(key yubihsm.SessionKey, counter uint32) (cipher.Block, []byte) {
	var iv [aesBlockSize]byte
	yubihsm.Put32(iv[len(iv)-4:], counter)

	block, _ := aes.NewCipher(key[:])
	block.Encrypt(iv[:], iv[:])
	return block, iv[:]
}

// decryptMessage CBC-decrypts a session message body and strips its
// padding.
func decryptMessage(block cipher.Block, iv, ciphertext []byte) ([]byte, bool) {
	inner := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(inner, ciphertext)

	i := len(inner) - 1
	for i >= 0 && inner[i] == 0 {
		i--
	}
	if i < 0 || inner[i] != 0x80 {
		return nil, false
	}
	return inner[:i], true
}

// encryptMessage CBC-encrypts a padded plaintext in place.
func encryptMessage(block cipher.Block, iv, padded []byte) []byte {
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	return padded
}

// pad appends ISO 7816-4 padding up to the AES block size.
func pad(b []byte) []byte {
	b = append(b, 0x80)
	for len(b)%aesBlockSize != 0 {
		b = append(b, 0)
	}
	return b
}
