// Package notes persists the notes collection: a flat list of notes stored
// as one blob, a sibling of the filesystem snapshot under its own key.
package notes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"deskos/internal/vfs"
)

// StorageKey is the blob store key holding the serialized note list.
const StorageKey = "deskos-notes"

// MaxImportSize caps imported note content at 1 MiB.
const MaxImportSize = 1024 * 1024

// Note is a single notes-app document. Timestamps are epoch milliseconds.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Pinned    bool     `json:"pinned"`
	Archived  bool     `json:"archived"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

func (n *Note) clone() *Note {
	out := *n
	out.Tags = append([]string(nil), n.Tags...)
	return &out
}

// Repository owns the in-memory note list and writes it through to the blob
// store on every mutation.
type Repository struct {
	mu     sync.Mutex
	store  vfs.BlobStore
	notes  []*Note
	logger vfs.Logger
	clock  vfs.Clock
	idgen  vfs.IDGenerator
}

// NewRepository loads the note list from the store. An absent blob yields an
// empty list; a corrupt one is logged and reset to empty.
func NewRepository(store vfs.BlobStore, logger vfs.Logger, clock vfs.Clock, idgen vfs.IDGenerator) (*Repository, error) {
	r := &Repository{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok, err := r.store.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("loading notes: %w", err)
	}
	if !ok {
		r.notes = nil
		return nil
	}

	var notes []*Note
	if err := json.Unmarshal(data, &notes); err != nil {
		r.logger.Warn("persisted notes are corrupt, resetting", "error", err)
		r.notes = nil
		return nil
	}
	r.notes = notes
	return nil
}

func (r *Repository) saveLocked() error {
	data, err := json.Marshal(r.notes)
	if err != nil {
		return fmt.Errorf("encoding notes: %w", err)
	}
	if err := r.store.Set(StorageKey, data); err != nil {
		return fmt.Errorf("persisting notes: %w", err)
	}
	return nil
}

// Create adds an empty note with the given title.
func (r *Repository) Create(title string) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now().UnixMilli()
	note := &Note{
		ID:        r.idgen.New(),
		Title:     title,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes = append(r.notes, note)
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return note.clone(), nil
}

// Update replaces a note's content.
func (r *Repository) Update(id, content string) (*Note, error) {
	return r.mutate(id, func(n *Note) {
		n.Content = content
	})
}

// Rename changes a note's title.
func (r *Repository) Rename(id, title string) (*Note, error) {
	return r.mutate(id, func(n *Note) {
		n.Title = title
	})
}

// TogglePin flips a note's pinned flag.
func (r *Repository) TogglePin(id string) (*Note, error) {
	return r.mutate(id, func(n *Note) {
		n.Pinned = !n.Pinned
	})
}

// ToggleArchive flips a note's archived flag.
func (r *Repository) ToggleArchive(id string) (*Note, error) {
	return r.mutate(id, func(n *Note) {
		n.Archived = !n.Archived
	})
}

func (r *Repository) mutate(id string, apply func(*Note)) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note := r.findLocked(id)
	if note == nil {
		return nil, fmt.Errorf("note %s: %w", id, vfs.ErrNotFound)
	}
	apply(note)
	note.UpdatedAt = r.clock.Now().UnixMilli()
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return note.clone(), nil
}

// Delete removes a note. It reports whether a note was actually removed.
func (r *Repository) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.notes[:0]
	removed := false
	for _, n := range r.notes {
		if n.ID == id {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	r.notes = kept
	if !removed {
		return false, nil
	}
	if err := r.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// All returns clones of every note.
func (r *Repository) All() []*Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(func(*Note) bool { return true })
}

// Archived returns clones of the archived notes.
func (r *Repository) Archived() []*Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(func(n *Note) bool { return n.Archived })
}

// Unarchived returns clones of the notes not archived.
func (r *Repository) Unarchived() []*Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(func(n *Note) bool { return !n.Archived })
}

// Get returns a clone of the note with the given id.
func (r *Repository) Get(id string) (*Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note := r.findLocked(id)
	if note == nil {
		return nil, false
	}
	return note.clone(), true
}

// Reload re-reads the note list from the blob store.
func (r *Repository) Reload() error {
	return r.load()
}

// Import creates a note from raw markdown content, deriving the title from
// the first heading line (or the leading content as a fallback).
func (r *Repository) Import(content string) (*Note, error) {
	if len(content) > MaxImportSize {
		return nil, fmt.Errorf("imported note content exceeds maximum allowed size (1MB)")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now().UnixMilli()
	note := &Note{
		ID:        r.idgen.New(),
		Title:     titleFromContent(content),
		Content:   content,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes = append(r.notes, note)
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return note.clone(), nil
}

func (r *Repository) findLocked(id string) *Note {
	for _, n := range r.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (r *Repository) filterLocked(keep func(*Note) bool) []*Note {
	var out []*Note
	for _, n := range r.notes {
		if keep(n) {
			out = append(out, n.clone())
		}
	}
	return out
}

// titleFromContent derives a note title: the first markdown heading if the
// content starts with one, otherwise the first 30 characters.
func titleFromContent(content string) string {
	firstLine, _, _ := strings.Cut(content, "\n")
	if strings.HasPrefix(firstLine, "#") {
		return strings.TrimSpace(strings.TrimLeft(firstLine, "# "))
	}
	// Truncate on a rune boundary so multibyte content stays valid UTF-8.
	runes := []rune(content)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	if title := strings.TrimSpace(string(runes)); title != "" {
		return title
	}
	return "Imported Note"
}
