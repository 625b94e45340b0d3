package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mistakebook/internal/model"
)

const (
	activeFile = "mistakes.json"
	trashFile  = "trash.json"
)

// LocalStore keeps the two collections as whole JSON arrays on disk, one file
// for active records and one for the trash. Every mutation reads the whole
// list, modifies it, and writes the whole file back; there is no partial
// write or transaction concept. Adequate because a single process owns the
// files, mirroring single-tab browser storage.
type LocalStore struct {
	mu        sync.Mutex
	dataPath  string
	timestamp func() int64
}

func NewLocalStore(dataPath string) *LocalStore {
	return &LocalStore{
		dataPath:  dataPath,
		timestamp: func() int64 { return time.Now().UnixMilli() },
	}
}

func (s *LocalStore) LoadActive(ctx context.Context) ([]*model.Mistake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readList(activeFile)
}

func (s *LocalStore) LoadTrashed(ctx context.Context) ([]*model.Mistake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readList(trashFile)
}

func (s *LocalStore) Add(ctx context.Context, m *model.Mistake) (*model.Mistake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readList(activeFile)
	if err != nil {
		return nil, err
	}

	stored := m.Clone()
	list = append([]*model.Mistake{stored}, list...)

	err = s.writeList(activeFile, list)
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

func (s *LocalStore) Update(ctx context.Context, m *model.Mistake) (*model.Mistake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readList(activeFile)
	if err != nil {
		return nil, err
	}

	for i, existing := range list {
		if existing.ID == m.ID {
			list[i] = m.Clone()
			err = s.writeList(activeFile, list)
			if err != nil {
				return nil, err
			}
			return m.Clone(), nil
		}
	}

	return nil, ErrMistakeNotFound
}

func (s *LocalStore) MoveToTrash(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.readList(activeFile)
	if err != nil {
		return err
	}

	var moved *model.Mistake
	remaining := active[:0]
	for _, m := range active {
		if m.ID == id {
			moved = m
			continue
		}
		remaining = append(remaining, m)
	}
	if moved == nil {
		return ErrMistakeNotFound
	}

	deletedAt := s.timestamp()
	moved.DeletedAt = &deletedAt

	trash, err := s.readList(trashFile)
	if err != nil {
		return err
	}
	trash = append([]*model.Mistake{moved}, trash...)

	err = s.writeList(activeFile, remaining)
	if err != nil {
		return err
	}
	return s.writeList(trashFile, trash)
}

func (s *LocalStore) Restore(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trash, err := s.readList(trashFile)
	if err != nil {
		return err
	}

	var restored *model.Mistake
	remaining := trash[:0]
	for _, m := range trash {
		if m.ID == id {
			restored = m
			continue
		}
		remaining = append(remaining, m)
	}
	if restored == nil {
		return ErrMistakeNotFound
	}

	restored.DeletedAt = nil

	active, err := s.readList(activeFile)
	if err != nil {
		return err
	}
	// Restored records rejoin the main collection at the head.
	active = append([]*model.Mistake{restored}, active...)

	err = s.writeList(trashFile, remaining)
	if err != nil {
		return err
	}
	return s.writeList(activeFile, active)
}

func (s *LocalStore) Purge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trash, err := s.readList(trashFile)
	if err != nil {
		return err
	}

	remaining := trash[:0]
	for _, m := range trash {
		if m.ID != id {
			remaining = append(remaining, m)
		}
	}

	// Purging an id that is already gone is a no-op.
	return s.writeList(trashFile, remaining)
}

func (s *LocalStore) EmptyTrash(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeList(trashFile, []*model.Mistake{})
}

func (s *LocalStore) readList(name string) ([]*model.Mistake, error) {
	raw, err := os.ReadFile(filepath.Join(s.dataPath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.Mistake{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var list []*model.Mistake
	err = json.Unmarshal(raw, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return list, nil
}

func (s *LocalStore) writeList(name string, list []*model.Mistake) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	dir := s.dataPath
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
