package sessionstore

import (
	"crypto/rand"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// MinKeySize is the minimum length of the cookie signing key in bytes.
const MinKeySize = 32

type CryptoFunc func([]byte) ([]byte, error)

func SignWithHS256KeyFunc(key []byte) CryptoFunc {
	return func(payload []byte) ([]byte, error) {
		return jws.Sign(payload, jws.WithKey(jwa.HS256, key))
	}
}

func VerifyWithHS256KeyFunc(key []byte) CryptoFunc {
	return func(payload []byte) ([]byte, error) {
		return jws.Verify(payload, jws.WithKey(jwa.HS256, key))
	}
}

// Generate a random key of the given length in bits.
func GenerateRandomKey(bits int) []byte {
	key := make([]byte, bits/8)
	_, err := rand.Read(key)
	if err != nil {
		// if random does not work, we have a big problem
		panic(err)
	}

	return key
}

func checkKey(key []byte) error {
	if len(key) < MinKeySize {
		return fmt.Errorf("session signing key must be at least %d bytes, got %d", MinKeySize, len(key))
	}
	return nil
}
