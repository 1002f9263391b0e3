package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"poolScope/internal/storage"
)

// Checkpoint persists the last fully processed block.
type Checkpoint interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

// FileCheckpoint stores the checkpoint in a local JSON file.
type FileCheckpoint struct {
	Path string
}

type checkpointRecord struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

func (c *FileCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	if c == nil || c.Path == "" {
		return 0, false, nil
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var rec checkpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return rec.LastProcessedBlock, true, nil
}

func (c *FileCheckpoint) Save(ctx context.Context, block uint64) error {
	if c == nil || c.Path == "" {
		return nil
	}
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(checkpointRecord{
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmp, c.Path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// StoreCheckpoint keeps the checkpoint as a named state row.
type StoreCheckpoint struct {
	Store storage.StateStore
	Name  string
}

func (c *StoreCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	if c == nil || c.Store == nil {
		return 0, false, nil
	}
	return c.Store.LoadState(ctx, c.Name)
}

func (c *StoreCheckpoint) Save(ctx context.Context, block uint64) error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.SaveState(ctx, c.Name, block)
}
