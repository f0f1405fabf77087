package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/port"
)

const jsonIndent = "    "

var _ port.SnapshotRepository = (*FileAdapter)(nil)

// FileAdapter stores snapshots as indented JSON files.
type FileAdapter struct {
	baseDir string
}

// NewFileAdapter resolves relative snapshot names under baseDir, or the
// working directory when baseDir is empty.
func NewFileAdapter(baseDir string) *FileAdapter {
	return &FileAdapter{baseDir: baseDir}
}

func (a *FileAdapter) Load(ctx context.Context, name string) (*domain.Inventory, error) {
	path := a.resolve(name)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, port.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	inv := domain.NewInventory()
	if err := dec.Decode(inv); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot %s: unexpected data after inventory object", path)
	}
	return inv, nil
}

func (a *FileAdapter) Save(ctx context.Context, name string, inv *domain.Inventory) (err error) {
	path := a.resolve(name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close snapshot: %w", cerr))
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(inv); err != nil {
		return fmt.Errorf("encode snapshot %s: %w", path, err)
	}
	return nil
}

func (a *FileAdapter) resolve(name string) string {
	if a.baseDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.baseDir, name)
}
