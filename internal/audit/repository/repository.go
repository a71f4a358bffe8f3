// Package repository holds the swappable audit store backends: in-memory,
// SQL (postgres, sqlite) and MongoDB.
package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
)

var (
	ErrNotFound = audit.ErrNotFound

	_ audit.Store = (*MemoryRepo)(nil)
	_ audit.Store = (*SQLRepo)(nil)
	_ audit.Store = (*MongoRepo)(nil)
)

// newID returns a time-ordered UUIDv7 so ids sort by creation within a process.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("%w: generate id: %v", audit.ErrStorageUnavailable, err)
	}
	return id.String(), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", audit.ErrStorageUnavailable, op, err)
}
