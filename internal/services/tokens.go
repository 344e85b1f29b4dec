package services

import (
	"crypto/rand"
	"encoding/hex"
)

const tokenBytes = 32

// generateToken returns an unguessable hex token for cancel and public links.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
