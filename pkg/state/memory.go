package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/snapsync/pkg/savegame"
)

var _ ProgressManager = &InMemoryProgressManager{}

type InMemoryProgressManager struct {
	lock     sync.RWMutex
	progress *savegame.SaveGame
}

func NewInMemoryProgressManager() *InMemoryProgressManager {
	return &InMemoryProgressManager{
		progress: savegame.New(),
	}
}

func (m *InMemoryProgressManager) Get(ctx context.Context) (*savegame.SaveGame, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.progress.Clone(), nil
}

func (m *InMemoryProgressManager) Set(ctx context.Context, progress *savegame.SaveGame) error {
	if progress == nil {
		return fmt.Errorf("progress is nil")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.progress = progress.Clone()
	return nil
}
