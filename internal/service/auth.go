package service

import (
	"fmt"
	"golang.org/x/crypto/bcrypt"
)

const pinHashCost = bcrypt.DefaultCost

type Verifier interface {
	Verify(hash, secret string) bool
}

type BcryptVerifier struct{}

func (BcryptVerifier) Verify(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func HashPIN(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), pinHashCost)
	if err != nil {
		return "", fmt.Errorf("error while hashing pin: %w", err)
	}
	return string(hashed), nil
}
