package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// SecretLength is the length of generated portal passwords.
const SecretLength = 12

const secretAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%^&*-_=+?"

// GenerateSecret returns a random password drawn from mixed-case letters,
// digits and symbols using crypto/rand.
func GenerateSecret() (string, error) {
	limit := big.NewInt(int64(len(secretAlphabet)))
	buf := make([]byte, SecretLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		buf[i] = secretAlphabet[n.Int64()]
	}
	return string(buf), nil
}
