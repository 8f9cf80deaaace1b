package vfs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LoadOutcome describes how the repository obtained its initial snapshot.
// The reset outcomes are surfaced so callers can warn the user distinctly
// from a fresh install.
type LoadOutcome string

const (
	LoadFresh        LoadOutcome = "fresh"         // no persisted blob, seeded default tree
	LoadOK           LoadOutcome = "ok"            // persisted blob loaded
	LoadResetVersion LoadOutcome = "reset-version" // version mismatch, default tree rebuilt
	LoadResetCorrupt LoadOutcome = "reset-corrupt" // blob failed to decode, default tree rebuilt
)

// CreateItemOptions describes a new item. The parent folder is resolved
// from ParentID when set, otherwise from ParentPath ("" means root).
type CreateItemOptions struct {
	Type       ItemType
	Name       string
	ParentID   string
	ParentPath string
	Content    string
	AppHint    string
}

// Repository owns the live snapshot and is the single mutation entry point.
// Every mutating operation applies to the in-memory snapshot, persists the
// whole snapshot to the blob store, and then emits one change event. Each
// operation is a single critical section; events are dispatched after the
// lock is released so listeners may re-enter the repository.
//
// All returned items are clones; the internal map is never exposed.
type Repository struct {
	mu       sync.Mutex
	store    BlobStore
	snapshot *Snapshot

	logger Logger
	clock  Clock
	idgen  IDGenerator

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int

	loadOutcome LoadOutcome
}

// NewRepository loads the persisted snapshot from the store, seeding and
// persisting the default tree when the blob is absent, corrupt or has a
// stale schema version.
func NewRepository(store BlobStore, logger Logger, clock Clock, idgen IDGenerator) (*Repository, error) {
	r := &Repository{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		subs:   make(map[int]Listener),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadOutcome reports how the initial snapshot was obtained.
func (r *Repository) LoadOutcome() LoadOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadOutcome
}

// load reads the snapshot blob. Corruption and version mismatches are healed
// by rebuilding the default tree; only store I/O failures propagate.
func (r *Repository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok, err := r.store.Get(SnapshotKey)
	if err != nil {
		return opError(OpLoad, SnapshotKey, err)
	}
	if !ok {
		r.logger.Info("no persisted filesystem, seeding default tree")
		return r.resetLocked(LoadFresh)
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		r.logger.Warn("persisted filesystem is corrupt, resetting to default tree", "error", err)
		return r.resetLocked(LoadResetCorrupt)
	}
	if snap.Version != SnapshotVersion {
		r.logger.Warn("snapshot version mismatch, resetting to default tree",
			"persisted", snap.Version, "supported", SnapshotVersion)
		return r.resetLocked(LoadResetVersion)
	}

	r.snapshot = snap
	r.loadOutcome = LoadOK
	return nil
}

// resetLocked replaces the snapshot with the default tree and persists it.
func (r *Repository) resetLocked(outcome LoadOutcome) error {
	r.snapshot = DefaultSnapshot(r.clock, r.idgen)
	r.loadOutcome = outcome
	return r.persistLocked()
}

// persistLocked writes the full snapshot through to the blob store.
func (r *Repository) persistLocked() error {
	data, err := EncodeSnapshot(r.snapshot)
	if err != nil {
		return opError(OpPersist, SnapshotKey, err)
	}
	if err := r.store.Set(SnapshotKey, data); err != nil {
		return opError(OpPersist, SnapshotKey, err)
	}
	return nil
}

// Snapshot returns a deep copy of the current snapshot.
func (r *Repository) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Clone()
}

// RootID returns the id of the root folder.
func (r *Repository) RootID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.RootID
}

// TrashID returns the id of the trash folder.
func (r *Repository) TrashID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.TrashID
}

// GetItemByID returns a clone of the item, or false if it does not exist.
func (r *Repository) GetItemByID(id string) (*Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// FindByPath returns a clone of the item at the given normalized path.
func (r *Repository) FindByPath(path string) (*Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := r.findByPathLocked(NormalizePath(path))
	if item == nil {
		return nil, false
	}
	return item.Clone(), true
}

// List returns the direct children of the folder at the given path, folders
// first, then case-insensitive name order.
func (r *Repository) List(path string) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := NormalizePath(path)
	dir := r.findByPathLocked(normalized)
	if dir == nil {
		return nil, opError(OpList, normalized, ErrNotFound)
	}
	if !dir.IsFolder() {
		return nil, opError(OpList, normalized, fmt.Errorf("%w: not a folder", ErrInvalidType))
	}
	return cloneSorted(r.childrenOf(dir.ID)), nil
}

// ListByParentID returns the direct children of a folder by id, sorted the
// same way as List.
func (r *Repository) ListByParentID(parentID string) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, ok := r.snapshot.Items[parentID]
	if !ok {
		return nil, opError(OpList, parentID, ErrNotFound)
	}
	if !parent.IsFolder() {
		return nil, opError(OpList, parentID, fmt.Errorf("%w: not a folder", ErrInvalidType))
	}
	return cloneSorted(r.childrenOf(parentID)), nil
}

// CreateItem creates a file or folder under the resolved parent. A name that
// collides with a sibling is disambiguated with a " (n)" suffix before the
// extension. Returns a clone of the new item.
func (r *Repository) CreateItem(opts CreateItemOptions) (*Item, error) {
	item, err := r.createLocked(opts)
	if err != nil {
		return nil, err
	}
	r.emit(EventCreate, item)
	return item, nil
}

// CreateFile is a convenience wrapper creating an item under a parent path.
func (r *Repository) CreateFile(parentPath, name string, typ ItemType) (*Item, error) {
	return r.CreateItem(CreateItemOptions{Type: typ, Name: name, ParentPath: parentPath})
}

func (r *Repository) createLocked(opts CreateItemOptions) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Type != TypeFile && opts.Type != TypeFolder {
		return nil, opError(OpCreate, opts.Name, fmt.Errorf("%w: unknown type %q", ErrInvalidArgument, opts.Type))
	}

	parent, err := r.resolveParentLocked(opts)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(opts.Name)
	if strings.Contains(name, "/") {
		return nil, opError(OpCreate, name, fmt.Errorf("%w: name cannot contain '/'", ErrInvalidArgument))
	}
	if name == "" {
		if opts.Type == TypeFolder {
			name = "New Folder"
		} else {
			name = "New File"
		}
	}
	name = r.uniqueNameLocked(parent.ID, name, "")

	now := r.clock.Now().UnixMilli()
	item := &Item{
		ID:        r.idgen.New(),
		Name:      name,
		Type:      opts.Type,
		ParentID:  parent.ID,
		Path:      JoinPath(parent.Path, name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.Type == TypeFile {
		item.Content = opts.Content
		item.Metadata = &Metadata{
			Extension: ExtensionOf(name),
			Size:      int64(len(opts.Content)),
			AppHint:   opts.AppHint,
		}
	} else if opts.AppHint != "" {
		item.Metadata = &Metadata{AppHint: opts.AppHint}
	}

	r.snapshot.Items[item.ID] = item
	if err := r.persistLocked(); err != nil {
		return nil, err
	}

	r.logger.Debug("item created", "id", item.ID, "path", item.Path, "type", item.Type)
	return item.Clone(), nil
}

// DeleteItem removes an item. With soft=true (the usual case) the item and
// its subtree move under the trash folder, remembering the original parent
// for restore; soft-deleting something already inside the trash degrades to
// a hard delete. With soft=false the subtree is removed permanently.
func (r *Repository) DeleteItem(id string, soft bool) error {
	item, err := r.deleteLocked(id, soft)
	if err != nil {
		return err
	}
	r.emit(EventDelete, item)
	return nil
}

func (r *Repository) deleteLocked(id string, soft bool) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, opError(OpDelete, id, ErrNotFound)
	}
	if id == r.snapshot.RootID || id == r.snapshot.TrashID {
		return nil, opError(OpDelete, item.Path, fmt.Errorf("%w: cannot delete %s", ErrInvalidArgument, item.Name))
	}

	if soft && !r.inTrashLocked(id) {
		trash := r.snapshot.Items[r.snapshot.TrashID]
		parent := r.snapshot.Items[item.ParentID]

		now := r.clock.Now().UnixMilli()
		md := item.meta()
		md.LastParentID = parent.ID
		md.LastParentPath = parent.Path
		item.ParentID = trash.ID
		item.Name = r.uniqueNameLocked(trash.ID, item.Name, item.ID)
		r.markDeletedLocked(item, now)
		r.recomputePathsLocked(item, trash.Path, now)

		if err := r.persistLocked(); err != nil {
			return nil, err
		}
		r.logger.Debug("item trashed", "id", item.ID, "path", item.Path)
		return item.Clone(), nil
	}

	// Hard delete: remove the whole subtree from the map. Irreversible.
	clone := item.Clone()
	r.removeRecursiveLocked(id)
	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	r.logger.Debug("item deleted permanently", "id", id, "path", clone.Path)
	return clone, nil
}

// RestoreItem moves a soft-deleted item out of the trash. The destination is
// the explicit destinationPath when given, else the recorded pre-delete
// parent, else the root; a destination that no longer resolves to a folder
// falls back to the root. Restoring an item that is not deleted is a no-op.
func (r *Repository) RestoreItem(id string, destinationPath string) (*Item, error) {
	item, restored, err := r.restoreLocked(id, destinationPath)
	if err != nil {
		return nil, err
	}
	if restored {
		r.emit(EventRestore, item)
	}
	return item, nil
}

func (r *Repository) restoreLocked(id string, destinationPath string) (*Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, false, opError(OpRestore, id, ErrNotFound)
	}
	if !item.Deleted() {
		return item.Clone(), false, nil
	}

	dest := r.snapshot.Items[r.snapshot.RootID]
	preferred := ""
	if destinationPath != "" {
		preferred = NormalizePath(destinationPath)
	} else if item.Metadata != nil && item.Metadata.LastParentPath != "" {
		preferred = NormalizePath(item.Metadata.LastParentPath)
	}
	if preferred != "" {
		if folder := r.findByPathLocked(preferred); folder != nil && folder.IsFolder() &&
			folder.ID != r.snapshot.TrashID && !r.inTrashLocked(folder.ID) {
			dest = folder
		}
	}

	now := r.clock.Now().UnixMilli()
	item.Name = r.uniqueNameLocked(dest.ID, item.Name, item.ID)
	item.ParentID = dest.ID
	if item.Metadata != nil {
		item.Metadata.LastParentID = ""
		item.Metadata.LastParentPath = ""
	}
	r.markDeletedLocked(item, 0)
	r.recomputePathsLocked(item, dest.Path, now)

	if err := r.persistLocked(); err != nil {
		return nil, false, err
	}
	r.logger.Debug("item restored", "id", item.ID, "path", item.Path)
	return item.Clone(), true, nil
}

// RenameItem changes an item's display name, disambiguating against its
// current siblings. Renaming to the item's own name is a no-op beyond the
// updatedAt bump. The root and trash folders cannot be renamed.
func (r *Repository) RenameItem(id, newName string) (*Item, error) {
	item, err := r.renameLocked(id, newName)
	if err != nil {
		return nil, err
	}
	r.emit(EventRename, item)
	return item, nil
}

func (r *Repository) renameLocked(id, newName string) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, opError(OpRename, id, ErrNotFound)
	}
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return nil, opError(OpRename, item.Path, fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument))
	}
	if strings.Contains(trimmed, "/") {
		return nil, opError(OpRename, item.Path, fmt.Errorf("%w: name cannot contain '/'", ErrInvalidArgument))
	}
	if id == r.snapshot.RootID || id == r.snapshot.TrashID {
		return nil, opError(OpRename, item.Path, fmt.Errorf("%w: cannot rename %s", ErrInvalidArgument, item.Name))
	}

	name := r.uniqueNameLocked(item.ParentID, trimmed, item.ID)
	parent := r.snapshot.Items[item.ParentID]

	now := r.clock.Now().UnixMilli()
	item.Name = name
	if item.Type == TypeFile {
		item.meta().Extension = ExtensionOf(name)
	}
	r.recomputePathsLocked(item, parent.Path, now)

	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	r.logger.Debug("item renamed", "id", item.ID, "path", item.Path)
	return item.Clone(), nil
}

// MoveItem reparents an item into the destination folder. Moving a folder
// into itself or one of its own descendants is rejected. A move clears any
// trash-restore bookkeeping; moving into (or out of) the trash updates the
// subtree's deleted state accordingly.
func (r *Repository) MoveItem(id, destinationFolderID string) (*Item, error) {
	item, err := r.moveLocked(id, destinationFolderID)
	if err != nil {
		return nil, err
	}
	r.emit(EventMove, item)
	return item, nil
}

func (r *Repository) moveLocked(id, destinationFolderID string) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, opError(OpMove, id, ErrNotFound)
	}
	dest, ok := r.snapshot.Items[destinationFolderID]
	if !ok {
		return nil, opError(OpMove, destinationFolderID, ErrNotFound)
	}
	if !dest.IsFolder() {
		return nil, opError(OpMove, dest.Path, fmt.Errorf("%w: destination must be a folder", ErrInvalidType))
	}
	if id == r.snapshot.RootID || id == r.snapshot.TrashID {
		return nil, opError(OpMove, item.Path, fmt.Errorf("%w: cannot move %s", ErrInvalidArgument, item.Name))
	}
	if id == dest.ID {
		return nil, opError(OpMove, item.Path, fmt.Errorf("%w: cannot move an item into itself", ErrInvalidArgument))
	}
	// Cycle guard: walk up from the destination toward the root.
	for cursor := dest; cursor != nil; cursor = r.snapshot.Items[cursor.ParentID] {
		if cursor.ID == id {
			return nil, opError(OpMove, item.Path, ErrCycle)
		}
		if cursor.ParentID == "" {
			break
		}
	}

	now := r.clock.Now().UnixMilli()
	item.Name = r.uniqueNameLocked(dest.ID, item.Name, item.ID)
	item.ParentID = dest.ID
	if item.Metadata != nil {
		item.Metadata.LastParentID = ""
		item.Metadata.LastParentPath = ""
	}
	if r.inTrashLocked(dest.ID) || dest.ID == r.snapshot.TrashID {
		r.markDeletedLocked(item, now)
	} else {
		r.markDeletedLocked(item, 0)
	}
	r.recomputePathsLocked(item, dest.Path, now)

	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	r.logger.Debug("item moved", "id", item.ID, "path", item.Path)
	return item.Clone(), nil
}

// ReadFile returns a file's content. Reading emits an observability event
// but never mutates state.
func (r *Repository) ReadFile(id string) (string, error) {
	content, item, err := r.readLocked(id)
	if err != nil {
		return "", err
	}
	r.emit(EventRead, item)
	return content, nil
}

func (r *Repository) readLocked(id string) (string, *Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return "", nil, opError(OpRead, id, ErrNotFound)
	}
	if item.IsFolder() {
		return "", nil, opError(OpRead, item.Path, fmt.Errorf("%w: cannot read a folder", ErrInvalidType))
	}
	return item.Content, item.Clone(), nil
}

// WriteFile replaces a file's content, refreshing its size metadata.
func (r *Repository) WriteFile(id, content string) (*Item, error) {
	item, err := r.writeLocked(id, content)
	if err != nil {
		return nil, err
	}
	r.emit(EventWrite, item)
	return item, nil
}

func (r *Repository) writeLocked(id, content string) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.snapshot.Items[id]
	if !ok {
		return nil, opError(OpWrite, id, ErrNotFound)
	}
	if item.IsFolder() {
		return nil, opError(OpWrite, item.Path, fmt.Errorf("%w: cannot write to a folder", ErrInvalidType))
	}

	item.Content = content
	item.meta().Size = int64(len(content))
	item.UpdatedAt = r.clock.Now().UnixMilli()

	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// Refresh reloads the snapshot from the blob store, recovering from changes
// made to the store by another process.
func (r *Repository) Refresh() error {
	if err := r.load(); err != nil {
		return err
	}
	r.emit(EventRefresh, nil)
	return nil
}

// Reset discards the current tree and reseeds the default one.
func (r *Repository) Reset() error {
	r.mu.Lock()
	err := r.resetLocked(LoadFresh)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.logger.Info("filesystem reset to default tree")
	r.emit(EventRefresh, nil)
	return nil
}

// internal helpers; all require r.mu held

func (r *Repository) findByPathLocked(normalized string) *Item {
	for _, item := range r.snapshot.Items {
		if item.Path == normalized {
			return item
		}
	}
	return nil
}

func (r *Repository) childrenOf(parentID string) []*Item {
	var children []*Item
	for _, item := range r.snapshot.Items {
		if item.ParentID == parentID && item.ID != r.snapshot.RootID {
			children = append(children, item)
		}
	}
	return children
}

func (r *Repository) resolveParentLocked(opts CreateItemOptions) (*Item, error) {
	if opts.ParentID != "" {
		parent, ok := r.snapshot.Items[opts.ParentID]
		if !ok {
			return nil, opError(OpCreate, opts.ParentID, fmt.Errorf("parent: %w", ErrNotFound))
		}
		if !parent.IsFolder() {
			return nil, opError(OpCreate, parent.Path, fmt.Errorf("%w: parent must be a folder", ErrInvalidType))
		}
		return parent, nil
	}
	path := NormalizePath(opts.ParentPath)
	parent := r.findByPathLocked(path)
	if parent == nil || !parent.IsFolder() {
		return nil, opError(OpCreate, path, fmt.Errorf("directory: %w", ErrNotFound))
	}
	return parent, nil
}

// uniqueNameLocked returns desired if no sibling of parentID (other than
// excludeID) already uses it case-insensitively, otherwise appends " (n)"
// before the extension with the smallest free n.
func (r *Repository) uniqueNameLocked(parentID, desired, excludeID string) string {
	taken := make(map[string]bool)
	for _, sibling := range r.childrenOf(parentID) {
		if sibling.ID == excludeID {
			continue
		}
		taken[strings.ToLower(sibling.Name)] = true
	}
	if !taken[strings.ToLower(desired)] {
		return desired
	}

	base, ext := SplitNameAndExtension(desired)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if ext != "" {
			candidate = fmt.Sprintf("%s (%d).%s", base, n, ext)
		}
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// recomputePathsLocked rewrites the item's path from its (already updated)
// parent chain and walks the whole subtree doing the same. Bounded by the
// subtree's actual size.
func (r *Repository) recomputePathsLocked(item *Item, parentPath string, now int64) {
	item.Path = JoinPath(parentPath, item.Name)
	item.UpdatedAt = now
	if !item.IsFolder() {
		return
	}
	for _, child := range r.childrenOf(item.ID) {
		r.recomputePathsLocked(child, item.Path, now)
	}
}

// markDeletedLocked sets (or clears, with ts == 0) DeletedAt on an item and
// every descendant, so the deleted flag always agrees with trash membership.
func (r *Repository) markDeletedLocked(item *Item, ts int64) {
	item.DeletedAt = ts
	if !item.IsFolder() {
		return
	}
	for _, child := range r.childrenOf(item.ID) {
		r.markDeletedLocked(child, ts)
	}
}

func (r *Repository) removeRecursiveLocked(id string) {
	for _, child := range r.childrenOf(id) {
		r.removeRecursiveLocked(child.ID)
	}
	delete(r.snapshot.Items, id)
}

// inTrashLocked reports whether the item's ancestor chain passes through
// the trash folder.
func (r *Repository) inTrashLocked(id string) bool {
	if id == r.snapshot.TrashID {
		return false
	}
	cursor := r.snapshot.Items[id]
	for cursor != nil {
		if cursor.ID == r.snapshot.TrashID {
			return true
		}
		if cursor.ParentID == "" {
			return false
		}
		cursor = r.snapshot.Items[cursor.ParentID]
	}
	return false
}

// cloneSorted clones and orders items folders-first, then by
// case-insensitive name.
func cloneSorted(items []*Item) []*Item {
	out := make([]*Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFolder() != out[j].IsFolder() {
			return out[i].IsFolder()
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
