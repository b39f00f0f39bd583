package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
)

// Sign computes the keyed digest over a session id and its creation
// timestamp. The result is 128 lowercase hex characters.
func Sign(secret, id string, created int64) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(id))
	mac.Write([]byte(strconv.FormatInt(created, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest for (id, created) and compares it against
// the presented one in constant time. Any change to id, created, digest or
// the secret invalidates the signature.
func Verify(secret, id string, created int64, digest string) bool {
	expected := Sign(secret, id, created)
	return hmac.Equal([]byte(digest), []byte(expected))
}

// newID returns a fresh unpredictable session identifier: 20 random bytes
// hex-encoded, i.e. 40 lowercase hex characters.
func newID() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", ErrIDGeneration
	}
	return hex.EncodeToString(b), nil
}
