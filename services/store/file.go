package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

const legacySource = "legacy"

// FileBackend keeps state in a JSON document on disk
type FileBackend struct {
	path string
	log  *logger.Logger
}

// NewFileBackend creates a backend for the JSON file at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, log: logger.ForStore()}
}

// Load reads the state file. A missing or empty file is an empty state; a file
// that cannot be parsed is a store error. The older bare array of hashes is
// accepted and converted.
func (b *FileBackend) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		b.log.Info().Str("path", b.path).Msg("No state file, starting empty")
		return NewState(), nil
	}
	if err != nil {
		return nil, apperrors.NewStore("file", fmt.Sprintf("read %s", b.path), err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return NewState(), nil
	}

	state := NewState()
	if data[0] == '[' {
		var hashes []string
		if err := json.Unmarshal(data, &hashes); err != nil {
			return nil, apperrors.NewStore("file", fmt.Sprintf("state file %s is corrupt", b.path), err)
		}
		for _, h := range hashes {
			state.Seen[h] = SeenEntry{Source: legacySource}
		}
		b.log.Info().Int("hashes", len(hashes)).Msg("Converted legacy state file")
		return state, nil
	}

	if err := json.Unmarshal(data, state); err != nil {
		return nil, apperrors.NewStore("file", fmt.Sprintf("state file %s is corrupt", b.path), err)
	}
	if state.Seen == nil {
		state.Seen = make(map[string]SeenEntry)
	}
	if state.Active == nil {
		state.Active = make(map[string]ActiveEntry)
	}

	b.log.Debug().
		Int("seen", len(state.Seen)).
		Int("active", len(state.Active)).
		Msg("Loaded state")
	return state, nil
}

// Save writes the state to a temp file in the same directory and renames it into place
func (b *FileBackend) Save(ctx context.Context, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.NewStore("file", "encode state", err)
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp*")
	if err != nil {
		return apperrors.NewStore("file", "create temp state file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStore("file", "write temp state file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewStore("file", "sync temp state file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStore("file", "close temp state file", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return apperrors.NewStore("file", fmt.Sprintf("replace %s", b.path), err)
	}

	b.log.Debug().Str("path", b.path).Int("seen", len(s.Seen)).Msg("Saved state")
	return nil
}

// Close is a no-op for files
func (b *FileBackend) Close() error {
	return nil
}
