package vfs

import (
	"encoding/json"
	"fmt"
)

const (
	// SnapshotKey is the blob store key holding the serialized snapshot.
	// It is distinct from the notes collection's key.
	SnapshotKey = "deskos-filesystem"

	// SnapshotVersion is the current schema version. A persisted snapshot
	// with any other version is discarded and the default tree rebuilt.
	SnapshotVersion = 1
)

// DefaultFolders are the fixed top-level folders seeded on first run.
var DefaultFolders = []string{"Documents", "Music", "System", "Vault", "Trash"}

// Snapshot is the complete serializable state of the tree: a flat id-keyed
// item map plus the root and trash pointers.
type Snapshot struct {
	Version int              `json:"version"`
	RootID  string           `json:"rootId"`
	TrashID string           `json:"trashId"`
	Items   map[string]*Item `json:"items"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	items := make(map[string]*Item, len(s.Items))
	for id, item := range s.Items {
		items[id] = item.Clone()
	}
	return &Snapshot{
		Version: s.Version,
		RootID:  s.RootID,
		TrashID: s.TrashID,
		Items:   items,
	}
}

// validate checks the structural minimum a decoded snapshot must satisfy
// before the repository will accept it.
func (s *Snapshot) validate() error {
	if s.RootID == "" || s.TrashID == "" {
		return fmt.Errorf("missing root or trash pointer")
	}
	root, ok := s.Items[s.RootID]
	if !ok {
		return fmt.Errorf("root item %s not in item map", s.RootID)
	}
	if !root.IsFolder() || root.ParentID != "" || root.Path != "/" {
		return fmt.Errorf("root item %s is malformed", s.RootID)
	}
	trash, ok := s.Items[s.TrashID]
	if !ok {
		return fmt.Errorf("trash item %s not in item map", s.TrashID)
	}
	if !trash.IsFolder() || trash.ParentID != s.RootID {
		return fmt.Errorf("trash item %s is malformed", s.TrashID)
	}
	for id, item := range s.Items {
		if item.ID != id {
			return fmt.Errorf("item %s stored under key %s", item.ID, id)
		}
	}
	return nil
}

// EncodeSnapshot serializes a snapshot to its persisted JSON form.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted snapshot blob. A blob that does not
// parse or fails structural validation yields ErrCorruptState.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if s.Items == nil {
		s.Items = make(map[string]*Item)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &s, nil
}

// DefaultSnapshot builds the seeded first-run tree: the root, the five fixed
// top-level folders and a handful of seed files. It is also the recovery
// state when a persisted blob is corrupt or has a stale version.
func DefaultSnapshot(clock Clock, idgen IDGenerator) *Snapshot {
	now := clock.Now().UnixMilli()
	items := make(map[string]*Item)

	rootID := idgen.New()
	items[rootID] = &Item{
		ID:        rootID,
		Name:      "/",
		Type:      TypeFolder,
		Path:      "/",
		CreatedAt: now,
		UpdatedAt: now,
	}

	folders := make(map[string]string, len(DefaultFolders))
	for _, name := range DefaultFolders {
		id := idgen.New()
		items[id] = &Item{
			ID:        id,
			Name:      name,
			Type:      TypeFolder,
			ParentID:  rootID,
			Path:      JoinPath("/", name),
			CreatedAt: now,
			UpdatedAt: now,
		}
		folders[name] = id
	}

	seed := func(parentID, name, content, appHint string, system bool) {
		id := idgen.New()
		parent := items[parentID]
		md := &Metadata{AppHint: appHint, Extension: ExtensionOf(name)}
		if content != "" {
			md.Size = int64(len(content))
		}
		items[id] = &Item{
			ID:        id,
			Name:      name,
			Type:      TypeFile,
			ParentID:  parentID,
			Path:      JoinPath(parent.Path, name),
			Content:   content,
			Metadata:  md,
			CreatedAt: now,
			UpdatedAt: now,
			System:    system,
		}
	}

	seed(folders["Documents"], "readme.md", "# Welcome to deskos\n\nYour digital playground awaits.", "notes", false)
	seed(folders["Music"], "neon-drive.mp3", "", "music", false)
	seed(folders["System"], "kernel.sys", "", "system", true)

	return &Snapshot{
		Version: SnapshotVersion,
		RootID:  rootID,
		TrashID: folders["Trash"],
		Items:   items,
	}
}
