// internal/storage/document/interface.go
package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marketdeck/marketdeck/internal/core"
)

// Store defines the interface for named-document backends. Documents
// are small JSON payloads addressed by a relative name such as
// "watchlist.json" or "snapshots/2026-08-23.json".
type Store interface {
	// Save stores a document under the given name, replacing any
	// previous content.
	Save(ctx context.Context, name string, data []byte) error

	// Load retrieves a document. Returns core.ErrDocumentNotFound
	// when no document exists under the name.
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns all document names matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the named document.
	Delete(ctx context.Context, name string) error

	// Exists checks if a document exists under the name.
	Exists(ctx context.Context, name string) (bool, error)
}

// SaveJSON marshals v and stores it under name.
func SaveJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := s.Save(ctx, name, data); err != nil {
		return core.WrapError(core.ErrStorage, err)
	}
	return nil
}

// LoadJSON retrieves the named document and unmarshals it into v.
// Missing documents pass through as core.ErrDocumentNotFound so
// callers can treat first runs as empty state.
func LoadJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return core.WrapError(core.ErrDecode, fmt.Errorf("decoding %s: %w", name, err))
	}
	return nil
}
