package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an item, parent or destination does not resolve
	// to an existing item.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidType indicates an operation expected a folder but got a file,
	// or vice versa.
	ErrInvalidType = errors.New("invalid item type")

	// ErrInvalidArgument indicates bad input such as an empty name, or an
	// operation on the root or trash folder that they do not support.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCycle indicates a move that would make an item its own descendant.
	ErrCycle = errors.New("cannot move a folder into its own descendant")

	// ErrCorruptState indicates a persisted snapshot that cannot be decoded.
	// The repository heals this by rebuilding the default tree.
	ErrCorruptState = errors.New("corrupt snapshot")
)

// Common operation names for consistent error reporting.
const (
	OpLoad    = "load"
	OpList    = "list"
	OpCreate  = "create"
	OpDelete  = "delete"
	OpRestore = "restore"
	OpRename  = "rename"
	OpMove    = "move"
	OpRead    = "read"
	OpWrite   = "write"
	OpPersist = "persist"
)

// Error wraps a repository failure with the operation and the affected
// path or id.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// opError builds an *Error. ref may be a path or an item id.
func opError(op, ref string, err error) *Error {
	return &Error{Op: op, Path: ref, Err: err}
}
