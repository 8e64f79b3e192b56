// Package snapshot persists the conversation memory mapping as a single JSON
// document. Each Save replaces the previous document as a whole.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Data is the persisted mapping from email to its ordered messages.
type Data map[string][]string

// Backend loads and stores the full mapping.
type Backend interface {
	// Load returns an empty, non-nil Data when nothing has been stored yet.
	Load(ctx context.Context) (Data, error)
	Save(ctx context.Context, data Data) error
}

func encode(data Data) ([]byte, error) {
	if data == nil {
		data = Data{}
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Data, error) {
	data := Data{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if data == nil {
		data = Data{}
	}
	return data, nil
}
