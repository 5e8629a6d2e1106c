package utils

import "github.com/google/uuid"

// NewUUID returns a time ordered (v7) UUID string.
func NewUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}
