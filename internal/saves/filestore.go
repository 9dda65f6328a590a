package saves

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/character"
	"github.com/dohr-michael/drudge/internal/storage/dirstore"
)

// FileStore persists saves as directories with meta.json + character.json + turns.jsonl.
type FileStore struct {
	ds *dirstore.DirStore
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{ds: dirstore.NewDirStore(baseDir, "save")}
}

// Create persists a new save to disk.
func (fs *FileStore) Create(s *Save) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if s.ID == "" {
		s.ID = GenerateSaveID()
	}
	if s.Status == "" {
		s.Status = SaveActive
	}

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	if err := fs.ds.EnsureDir(s.ID); err != nil {
		return err
	}

	return fs.ds.WriteMeta(s.ID, s)
}

// Get reads save metadata by ID.
func (fs *FileStore) Get(id string) (*Save, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	var s Save
	if err := fs.ds.ReadMeta(id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all saves sorted by UpdatedAt descending.
func (fs *FileStore) List() ([]*Save, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	dirs, err := fs.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var saves []*Save
	for _, name := range dirs {
		var s Save
		if err := fs.ds.ReadMeta(name, &s); err != nil {
			continue // skip corrupted saves
		}
		saves = append(saves, &s)
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].UpdatedAt.After(saves[j].UpdatedAt)
	})

	return saves, nil
}

// Update atomically rewrites a save's meta.json.
func (fs *FileStore) Update(s *Save) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	s.UpdatedAt = time.Now()
	return fs.ds.WriteMeta(s.ID, s)
}

// Delete removes a save directory.
func (fs *FileStore) Delete(id string) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	return fs.ds.RemoveDir(id)
}

// WriteCharacter snapshots the character, current activity included.
func (fs *FileStore) WriteCharacter(id string, c *character.Character) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal character: %w", err)
	}
	return fs.ds.WriteFileAtomic(id, "character.json", data)
}

// LoadCharacter restores the character snapshot. Activity payloads are
// decoded through the registry, so an unknown kind fails here rather
// than later mid-run.
func (fs *FileStore) LoadCharacter(id string, reg *activity.Registry) (*character.Character, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	data, err := fs.ds.ReadFileContent(id, "character.json")
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("save %s has no character snapshot", id)
	}

	c, err := character.Decode(data, reg)
	if err != nil {
		return nil, fmt.Errorf("decode character: %w", err)
	}
	return c, nil
}

// AppendTurn appends a turn record to the save's JSONL log.
func (fs *FileStore) AppendTurn(id string, rec TurnRecord) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	return fs.ds.AppendJSONL(id, "turns.jsonl", rec)
}

// LoadTurns reads all turn records from the save's JSONL log.
func (fs *FileStore) LoadTurns(id string) ([]TurnRecord, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	return dirstore.LoadJSONL[TurnRecord](fs.ds, id, "turns.jsonl")
}
