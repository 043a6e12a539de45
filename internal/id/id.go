// Package id generates identifiers for stored entities.
//
// Items, ruts, collects and users get UUIDv4 ids. Association and star rows,
// which are only ever addressed through their parents, get shorter prefixed
// NanoIDs.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// New returns a random UUIDv4 string for a top-level entity.
func New() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a UUID. Used to reject junk path params early.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "sti-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	nid, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return nid
}
