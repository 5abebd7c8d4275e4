// Package yubihsm provides access to a YubiHSM2 via idiomatic Go
// [crypto] APIs.
//
// The YubiHSM2 is the big-sibling to the YubiKey PIV dongle. See [What
// is YubiHSM2] for Yubico's documentation on their HSM.
//
// # Connecting to a YubiHSM2
//
// This package does not directly drive the USB device. Instead, you
// must run a separate _connector_ to provide access. The most common
// option is Yubico's [yubihsm-connector], which can be installed from
// source, your distribution's packages, or Yubico's [yubihsm2-sdk].
//
// Each connector provides a simple HTTP POST interface to the YubiHSM2,
// carrying the binary command-response protocol. The connector listens
// at localhost:12345 by default, but it is possible to connect to a
// remote instance:
//
//	conn := NewHTTPConnector(WithConnectorURL("http://1.2.3.4:5678/connector/api"))
//
// Any transport can be substituted by implementing the single-method
// [Connector] interface. The [mockhsm] subpackage provides an
// in-process device simulator useful for tests.
//
// # YubiHSM2 Sessions
//
// All meaningful commands on a YubiHSM2 are sent within the context of
// a [YubiHSM2 session]. Each session is encrypted and authenticated via
// a symmetric authentication key; the [Session] type negotiates the
// channel, encrypts every command, and verifies every response before
// the payload is looked at.
//
// An out-of-box YubiHSM2 is configured with a default authentication
// key derived from the password "password". You _must_ replace the
// default password and set a random key prior to using the HSM!
//
// Up to 16 sessions may be active concurrently on the HSM. Each session
// has a 30-second inactivity timeout before it expires. This package
// does not itself schedule keepalives; long-running processes should
// implement one via [Session.Ping]:
//
//	for range time.Tick(20 * time.Second) {
//		err := session.Ping(ctx, conn, 0xff)
//		if err != nil {
//			return err
//		}
//	}
//
// A session stops carrying commands once anything undermines its
// integrity: a bad response MAC, a transport failure mid-exchange, or
// the device expiring the session. The affected [Session] reports
// [ErrSessionClosed] from then on; call [Session.Authenticate] again to
// open a fresh session.
//
// # YubiHSM2 Keys
//
// Asymmetric keypairs can be generated on-device via
// [Session.GenerateKeyPair] or looked up by label via
// [Session.LoadKeyPair]. The returned [KeyPair] generally conforms to
// the standard [crypto] key APIs, and can adapt itself to a
// [crypto.Signer] or [crypto.Decrypter].
//
// # Supported key algorithms
//
// Only asymmetric key pairs (RSA, ECDSA, Ed25519) are supported. Any of
// these may be used to generate a signature. Only an RSA key can be
// used to decrypt a message.
//
// Ed25519ph is not supported by the YubiHSM2, only plain Ed25519 works.
//
// ECDH is not supported. (The [crypto/ecdh] API is closed from external
// extension; there is no way to implement a [crypto/ecdh.PrivateKey] in
// a third-party module.)
//
// # Links
//
// [YubiHSM2 session]: https://developers.yubico.com/YubiHSM2/Concepts/Session.html
// [yubihsm-connector]: https://github.com/Yubico/yubihsm-connector/
// [yubihsm2-sdk]: https://developers.yubico.com/YubiHSM2/Releases/
//
// [What is YubiHSM2]: https://developers.yubico.com/YubiHSM2/
package yubihsm
