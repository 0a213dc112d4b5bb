package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

// generateKey creates a random 256-bit master key. Provider credentials are
// encrypted at rest with AES-256 under this key; configure it through
// secrets.encryption_key or EINVOICE_SECRETS_ENCRYPTION_KEY.
func generateKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Unable to generate key: %v", err)
	}
	return key
}

func main() {
	key := generateKey()
	fmt.Println("Generated Key (hex):", hex.EncodeToString(key))
}
