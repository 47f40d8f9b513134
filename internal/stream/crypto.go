// Package stream implements the STREAM transport: encrypted,
// congestion-controlled chunks of an ILP payment or message exchange,
// carried inside Prepare/Fulfill/Reject data fields.
package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	tokenLength = 18
	nonceLength = 12
	tagLength   = 16
)

var (
	domainSharedSecret = []byte("ilp_stream_shared_secret")
	domainEncryption   = []byte("ilp_stream_encryption")
	domainFulfillment  = []byte("ilp_stream_fulfillment")
)

// ErrDecryptFailed is returned when a StreamPacket's ciphertext fails
// authentication, which also covers "wrong shared secret" and
// "truncated ciphertext".
var ErrDecryptFailed = errors.New("stream: failed to decrypt packet")

// ErrNotOurConnection is returned when a destination address doesn't
// carry a token minted by this receiver's ConnectionGenerator.
var ErrNotOurConnection = errors.New("stream: destination is not a recognized connection")

// GenerateToken returns a random connection token, embedded in the
// destination address the receiver hands out so it can later recover
// the shared secret without storing per-connection state.
func GenerateToken() ([]byte, error) {
	token := make([]byte, tokenLength)
	if _, err := io.ReadFull(rand.Reader, token); err != nil {
		return nil, err
	}
	return token, nil
}

// DeriveSharedSecret computes the 32-byte shared secret for a
// connection token from the receiver's server seed. Only the holder of
// the seed can compute it; the receiver recomputes it from the token in
// the destination address, and the sender has to be given it.
func DeriveSharedSecret(serverSeed, token []byte) []byte {
	return hkdfExpand(hkdf.Extract(sha256.New, serverSeed, token), domainSharedSecret, 32)
}

func encryptionKey(sharedSecret []byte) []byte {
	return hkdfExpand(sharedSecret, domainEncryption, 32)
}

func fulfillmentKey(sharedSecret []byte) []byte {
	return hkdfExpand(sharedSecret, domainFulfillment, 32)
}

func hkdfExpand(pseudorandomKey, info []byte, length int) []byte {
	reader := hkdf.Expand(sha256.New, pseudorandomKey, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		panic("stream: hkdf expand failed: " + err.Error())
	}
	return out
}

// encrypt seals plaintext under AES-256-GCM with a fresh random
// 12-byte nonce prepended to the ciphertext and a 16-byte trailing
// auth tag; associated data is empty.
func encrypt(sharedSecret, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey(sharedSecret))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagLength)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, nonceLength+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// decrypt reverses encrypt, returning ErrDecryptFailed on any
// authentication or length failure rather than a lower-level crypto
// error, so callers never need to distinguish the cause.
func decrypt(sharedSecret, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceLength+tagLength {
		return nil, ErrDecryptFailed
	}
	block, err := aes.NewCipher(encryptionKey(sharedSecret))
	if err != nil {
		return nil, ErrDecryptFailed
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagLength)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	nonce, sealed := ciphertext[:nonceLength], ciphertext[nonceLength:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// Fulfillment computes the deterministic fulfillment for a Prepare
// carrying ciphertext. Both ends of the connection hold the shared
// secret: the sender hashes this value into the Prepare's execution
// condition, and the receiver returns it as the matching preimage.
func Fulfillment(sharedSecret, ciphertext []byte) [32]byte {
	mac := hmac.New(sha256.New, fulfillmentKey(sharedSecret))
	mac.Write(ciphertext)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}
