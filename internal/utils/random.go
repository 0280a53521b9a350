package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID (16 hex characters)
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is exceptional; a UUID prefix keeps the id unique enough
		return uuid.New().String()[:16]
	}
	return hex.EncodeToString(b)
}

// GenerateCorrelationID generates a UUID for correlation tracking
func GenerateCorrelationID() string {
	return uuid.New().String()
}
