package session_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/pkg/session"
)

func TestSign(t *testing.T) {
	t.Parallel()

	t.Run("produces 128 lowercase hex chars", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign("secret", "298f74562fa2c2abfd158725d6e40fdb88cc6503", 1700000000)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{128}$`), digest)
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		a := session.Sign("secret", "abc", 42)
		b := session.Sign("secret", "abc", 42)
		assert.Equal(t, a, b)
	})

	t.Run("differs per secret", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t,
			session.Sign("secret-one", "abc", 42),
			session.Sign("secret-two", "abc", 42))
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	const (
		secret  = "process-wide-secret"
		id      = "298f74562fa2c2abfd158725d6e40fdb88cc6503"
		created = int64(1700000000)
	)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		assert.True(t, session.Verify(secret, id, created, digest))
	})

	t.Run("rejects tampered id", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		tampered := flipFirstChar(id)
		assert.False(t, session.Verify(secret, tampered, created, digest))
	})

	t.Run("rejects tampered timestamp", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		assert.False(t, session.Verify(secret, id, created+1, digest))
	})

	t.Run("rejects tampered digest", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		assert.False(t, session.Verify(secret, id, created, flipFirstChar(digest)))
	})

	t.Run("rejects rotated secret", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		assert.False(t, session.Verify("rotated-secret", id, created, digest))
	})

	t.Run("rejects flip at every digest position", func(t *testing.T) {
		t.Parallel()
		digest := session.Sign(secret, id, created)
		for i := range digest {
			mutated := []byte(digest)
			if mutated[i] == 'a' {
				mutated[i] = 'b'
			} else {
				mutated[i] = 'a'
			}
			require.False(t, session.Verify(secret, id, created, string(mutated)),
				"flipped digest position %d must not verify", i)
		}
	})
}

func flipFirstChar(s string) string {
	b := []byte(s)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}
