package webhook

import (
	"crypto/ed25519"
	"encoding/hex"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// Ed25519Verify is the detached-signature primitive. It matches ed25519.Verify.
type Ed25519Verify func(publicKey ed25519.PublicKey, message, sig []byte) bool

// SignatureVerifier checks interaction signatures over timestamp || body.
type SignatureVerifier struct {
	verify Ed25519Verify
}

// NewSignatureVerifier uses ed25519.Verify when primitive is nil.
func NewSignatureVerifier(primitive Ed25519Verify) *SignatureVerifier {
	if primitive == nil {
		primitive = ed25519.Verify
	}
	return &SignatureVerifier{verify: primitive}
}

// Verify fails closed. Missing headers return false before any decoding, and
// malformed hex, wrong lengths or a panicking primitive all report false.
func (v *SignatureVerifier) Verify(body []byte, signatureHex, timestamp, publicKeyHex string) (ok bool) {
	if signatureHex == "" || timestamp == "" {
		return false
	}

	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)

	return v.verify(ed25519.PublicKey(key), msg, sig)
}
