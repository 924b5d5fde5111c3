package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cbodonnell/snapsync/pkg/savegame"
)

var _ ProgressManager = &FileProgressManager{}

// FileProgressManager keeps the progress in a JSON file, for example
// {"version":"1.1","levels":{"1-2":3}}. A missing or unreadable file is
// treated as empty progress.
type FileProgressManager struct {
	lock sync.Mutex
	path string
}

func NewFileProgressManager(path string) *FileProgressManager {
	return &FileProgressManager{
		path: path,
	}
}

func (m *FileProgressManager) Get(ctx context.Context) (*savegame.SaveGame, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	b, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return savegame.New(), nil
		}
		return nil, fmt.Errorf("failed to read progress file: %v", err)
	}
	return savegame.FromJSON(b), nil
}

// Set writes the progress to a temporary file and renames it over the
// old one, so a crash never leaves a partial file behind.
func (m *FileProgressManager) Set(ctx context.Context, progress *savegame.SaveGame) error {
	if progress == nil {
		return fmt.Errorf("progress is nil")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create progress directory: %v", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary progress file: %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(progress.JSON()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write progress file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close progress file: %v", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %v", err)
	}
	return nil
}
