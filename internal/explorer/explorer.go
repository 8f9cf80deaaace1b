// Package explorer maintains the UI-facing view state on top of the
// repository: the current directory, tree expansion, selection and search.
// It subscribes once to repository change events and re-derives its state
// from the latest snapshot on every event.
package explorer

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"deskos/internal/vfs"
)

// SelectionMode controls how SetSelection combines ids with the existing
// selection.
type SelectionMode string

const (
	// SelectSingle replaces the selection with at most one id.
	SelectSingle SelectionMode = "single"
	// SelectToggle flips membership of each given id.
	SelectToggle SelectionMode = "toggle"
	// SelectRange replaces the selection wholesale.
	SelectRange SelectionMode = "range"
)

// preferredStartPath is the directory shown when the explorer opens, when
// it exists.
const preferredStartPath = "/Documents"

// Explorer mirrors repository state into observable view state.
//
// Lock discipline: methods never hold the internal mutex while calling into
// the repository, because repository events are delivered synchronously back
// into onEvent.
type Explorer struct {
	repo *vfs.Repository

	mu                 sync.Mutex
	items              map[string]*vfs.Item
	rootID             string
	trashID            string
	currentDirectoryID string
	currentPath        string
	searchQuery        string
	expanded           map[string]bool
	selected           []string
	lastEvent          vfs.EventType

	unsubscribe func()
}

// New builds an Explorer over the repository, pointing the current directory
// at /Documents when present (the root otherwise) and expanding its ancestor
// chain. It stays subscribed until Close.
func New(repo *vfs.Repository) *Explorer {
	e := &Explorer{
		repo:     repo,
		expanded: make(map[string]bool),
	}

	snap := repo.Snapshot()
	e.mu.Lock()
	e.applySnapshotLocked(snap)
	start := e.items[e.rootID]
	for _, item := range e.items {
		if item.Path == preferredStartPath && item.IsFolder() {
			start = item
			break
		}
	}
	e.setCurrentLocked(start)
	e.mu.Unlock()

	e.unsubscribe = repo.Subscribe(e.onEvent)
	return e
}

// Close detaches the explorer from repository events.
func (e *Explorer) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// onEvent re-pulls the latest snapshot. If the current directory vanished
// (it was moved away or deleted), the view falls back to the root.
func (e *Explorer) onEvent(ev vfs.Event) {
	snap := e.repo.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applySnapshotLocked(snap)
	e.lastEvent = ev.Type

	current, ok := e.items[e.currentDirectoryID]
	if !ok {
		e.setCurrentLocked(e.items[e.rootID])
		return
	}
	// The directory may have been renamed or moved under us.
	e.currentPath = current.Path
}

func (e *Explorer) applySnapshotLocked(snap *vfs.Snapshot) {
	e.items = snap.Items
	e.rootID = snap.RootID
	e.trashID = snap.TrashID
}

func (e *Explorer) setCurrentLocked(dir *vfs.Item) {
	e.currentDirectoryID = dir.ID
	e.currentPath = dir.Path
	e.expandAncestorsLocked(dir.ID)
}

func (e *Explorer) expandAncestorsLocked(id string) {
	for cursor := e.items[id]; cursor != nil; cursor = e.items[cursor.ParentID] {
		e.expanded[cursor.ID] = true
		if cursor.ParentID == "" {
			break
		}
	}
}

// CurrentDirectoryID returns the id of the directory the view shows.
func (e *Explorer) CurrentDirectoryID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentDirectoryID
}

// CurrentPath returns the path of the directory the view shows.
func (e *Explorer) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPath
}

// LastEvent returns the type of the most recent repository event seen.
func (e *Explorer) LastEvent() vfs.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEvent
}

// SetCurrentDirectoryByID points the view at a folder by id, expanding it
// and its ancestors. Unknown ids and files are ignored.
func (e *Explorer) SetCurrentDirectoryByID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.items[id]
	if !ok || !item.IsFolder() {
		return
	}
	e.setCurrentLocked(item)
}

// SetCurrentPath points the view at a folder by path, expanding it and its
// ancestors. Paths that do not resolve to a folder are ignored.
func (e *Explorer) SetCurrentPath(path string) {
	normalized := vfs.NormalizePath(path)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.items {
		if item.Path == normalized && item.IsFolder() {
			e.setCurrentLocked(item)
			return
		}
	}
}

// OpenParentDirectory moves the view one level up. At the root it is a no-op.
func (e *Explorer) OpenParentDirectory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	current, ok := e.items[e.currentDirectoryID]
	if !ok || current.ParentID == "" {
		return
	}
	if parent, ok := e.items[current.ParentID]; ok && parent.IsFolder() {
		e.setCurrentLocked(parent)
	}
}

// SetSearchQuery records the active search query.
func (e *Explorer) SetSearchQuery(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchQuery = query
}

// SearchQuery returns the active search query.
func (e *Explorer) SearchQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchQuery
}

// SetExpanded marks a tree node expanded or collapsed.
func (e *Explorer) SetExpanded(id string, expanded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if expanded {
		e.expanded[id] = true
	} else {
		delete(e.expanded, id)
	}
}

// IsExpanded reports whether a tree node is expanded.
func (e *Explorer) IsExpanded(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[id]
}

// GetItemByID returns a clone of an item from the mirrored snapshot.
func (e *Explorer) GetItemByID(id string) (*vfs.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// CreateItemInCurrent creates a file or folder in the current directory.
func (e *Explorer) CreateItemInCurrent(name string, typ vfs.ItemType) (*vfs.Item, error) {
	e.mu.Lock()
	parentPath := e.currentPath
	e.mu.Unlock()
	return e.repo.CreateItem(vfs.CreateItemOptions{Type: typ, Name: name, ParentPath: parentPath})
}

// DeleteItems deletes each id, collecting individual failures rather than
// stopping at the first, then clears the selection.
func (e *Explorer) DeleteItems(ids []string, soft bool) error {
	var errs []error
	for _, id := range ids {
		if err := e.repo.DeleteItem(id, soft); err != nil {
			errs = append(errs, err)
		}
	}
	e.ClearSelection()
	return errors.Join(errs...)
}

// RestoreItem restores a trashed item via the repository.
func (e *Explorer) RestoreItem(id, destinationPath string) (*vfs.Item, error) {
	return e.repo.RestoreItem(id, destinationPath)
}

// RenameItem renames an item via the repository. The mirrored current path
// follows automatically through the change event.
func (e *Explorer) RenameItem(id, name string) (*vfs.Item, error) {
	return e.repo.RenameItem(id, name)
}

// MoveItem moves an item into a destination folder. Moving an item onto its
// current parent is a no-op.
func (e *Explorer) MoveItem(id, destinationFolderID string) (*vfs.Item, error) {
	e.mu.Lock()
	current, ok := e.items[id]
	if ok && current.ParentID == destinationFolderID {
		clone := current.Clone()
		e.mu.Unlock()
		return clone, nil
	}
	e.mu.Unlock()
	return e.repo.MoveItem(id, destinationFolderID)
}

// ReadFile reads a file's content via the repository.
func (e *Explorer) ReadFile(id string) (string, error) {
	return e.repo.ReadFile(id)
}

// WriteFile writes a file's content via the repository.
func (e *Explorer) WriteFile(id, content string) (*vfs.Item, error) {
	return e.repo.WriteFile(id, content)
}

// SetSelection updates the selection according to the mode.
func (e *Explorer) SetSelection(ids []string, mode SelectionMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch mode {
	case SelectSingle:
		if len(ids) > 1 {
			ids = ids[:1]
		}
		e.selected = append([]string(nil), ids...)
	case SelectToggle:
		next := make(map[string]bool, len(e.selected))
		var order []string
		for _, id := range e.selected {
			next[id] = true
			order = append(order, id)
		}
		for _, id := range ids {
			if next[id] {
				delete(next, id)
			} else {
				next[id] = true
				order = append(order, id)
			}
		}
		e.selected = e.selected[:0]
		for _, id := range order {
			if next[id] {
				e.selected = append(e.selected, id)
			}
		}
	default:
		e.selected = append([]string(nil), ids...)
	}
}

// ClearSelection empties the selection.
func (e *Explorer) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = nil
}

// Selection returns a copy of the selected ids.
func (e *Explorer) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.selected...)
}

// IsInTrash reports whether an item's ancestor chain passes through the
// trash folder.
func (e *Explorer) IsInTrash(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isInTrashLocked(id)
}

func (e *Explorer) isInTrashLocked(id string) bool {
	for cursor := e.items[id]; cursor != nil; cursor = e.items[cursor.ParentID] {
		if cursor.ParentID == e.trashID {
			return true
		}
		if cursor.ParentID == "" {
			return false
		}
	}
	return false
}

// SearchItems matches items by case-insensitive substring over the name or
// extension, or by the literal type query "file"/"folder". The root and
// anything in the trash are excluded. Results are sorted by name.
func (e *Explorer) SearchItems(query string) []*vfs.Item {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var results []*vfs.Item
	for _, item := range e.items {
		if item.ID == e.rootID || item.Deleted() || e.isInTrashLocked(item.ID) {
			continue
		}
		if e.matches(item, normalized) {
			results = append(results, item.Clone())
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
	})
	return results
}

func (e *Explorer) matches(item *vfs.Item, normalized string) bool {
	if strings.Contains(strings.ToLower(item.Name), normalized) {
		return true
	}
	if item.Type == vfs.TypeFile && item.Metadata != nil && item.Metadata.Extension != "" {
		if strings.Contains(item.Metadata.Extension, strings.TrimPrefix(normalized, ".")) {
			return true
		}
	}
	switch normalized {
	case "folder":
		return item.IsFolder()
	case "file":
		return item.Type == vfs.TypeFile
	}
	return false
}

// ListDirectory returns the children of the folder at path ("" means the
// current directory), folders first, then case-insensitive name order.
// Unknown paths yield an empty list.
func (e *Explorer) ListDirectory(path string) []*vfs.Item {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := e.currentPath
	if path != "" {
		target = vfs.NormalizePath(path)
	}

	var dir *vfs.Item
	for _, item := range e.items {
		if item.Path == target && item.IsFolder() {
			dir = item
			break
		}
	}
	if dir == nil {
		return nil
	}

	var children []*vfs.Item
	for _, item := range e.items {
		if item.ParentID == dir.ID {
			children = append(children, item.Clone())
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].IsFolder() != children[j].IsFolder() {
			return children[i].IsFolder()
		}
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
	return children
}
