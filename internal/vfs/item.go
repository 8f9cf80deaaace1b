package vfs

// ItemType distinguishes files from folders. It is fixed at creation.
type ItemType string

const (
	TypeFile   ItemType = "file"
	TypeFolder ItemType = "folder"
)

// Metadata carries the reserved per-item attributes. LastParentID and
// LastParentPath are only set while an item sits in the trash and record
// where a restore should put it back.
type Metadata struct {
	Extension      string `json:"extension,omitempty"`
	Size           int64  `json:"size,omitempty"`
	AppHint        string `json:"appHint,omitempty"`
	LastParentID   string `json:"lastParentId,omitempty"`
	LastParentPath string `json:"lastParentPath,omitempty"`
}

// Item is a node in the virtual file system tree.
// The ID is immutable for the item's lifetime; it survives rename, move,
// trash and restore. ParentID is empty only for the root folder.
// Timestamps are epoch milliseconds.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      ItemType  `json:"type"`
	ParentID  string    `json:"parentId,omitempty"`
	Path      string    `json:"path"`
	Content   string    `json:"content,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	DeletedAt int64     `json:"deletedAt,omitempty"`
	System    bool      `json:"system,omitempty"`
}

// IsFolder returns true for folder items.
func (i *Item) IsFolder() bool { return i.Type == TypeFolder }

// Deleted returns true while the item is soft-deleted (inside the trash).
func (i *Item) Deleted() bool { return i.DeletedAt != 0 }

// Clone returns an owned copy of the item. The repository hands out clones
// only, so callers can never reach its internal state.
func (i *Item) Clone() *Item {
	out := *i
	if i.Metadata != nil {
		md := *i.Metadata
		out.Metadata = &md
	}
	return &out
}

// meta returns the item's metadata, allocating it on first use.
func (i *Item) meta() *Metadata {
	if i.Metadata == nil {
		i.Metadata = &Metadata{}
	}
	return i.Metadata
}
