package security

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey stretches a provider shared secret into an AES-256 key using
// PBKDF2. Some providers hand out short partner tokens; deriving with the
// partner GUID as salt keys each merchant's envelope independently even when
// tokens collide.
func DeriveKey(secret, salt string) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), 4096, 32, sha256.New)
	return hex.EncodeToString(key)
}
