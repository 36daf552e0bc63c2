package merkle

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrStorageCorruption is returned when a referenced hash is absent from the
// NodeStore, a decoded node violates an invariant, or an Edge's path length
// mismatches its bit payload (spec.md §7).
var ErrStorageCorruption = errors.New("merkle: storage corruption")

// ErrStorageIO is returned when the underlying NodeStore surfaces a
// transaction/IO error. Use errors.Is(err, ErrStorageIO) to detect it; the
// wrapped cause is preserved and stack-annotated via github.com/pkg/errors.
var ErrStorageIO = errors.New("merkle: storage I/O error")

// ErrInvalidKey is returned when a caller supplies a key whose length does
// not equal the trie's fixed height.
var ErrInvalidKey = errors.New("merkle: invalid key length")

// ErrInvalidProof is returned by Verify when a proof does not establish the
// claimed (key, value) pair against the expected root.
var ErrInvalidProof = errors.New("merkle: invalid proof")

// ErrTrieConsumed is returned by any Trie method called after Commit: a
// committed Trie must be reloaded from its new root (spec.md §4.4).
var ErrTrieConsumed = errors.New("merkle: trie already committed")

// corruption wraps ErrStorageCorruption with a specific, loggable detail.
func corruption(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrStorageCorruption, fmt.Sprintf(format, args...))
}

// storageIO wraps an underlying NodeStore error, preserving a stack trace at
// the point it crosses from the NodeStore into the trie (ambient error
// handling convention, see DESIGN.md).
func storageIO(cause error) error {
	return fmt.Errorf("%w: %w", ErrStorageIO, pkgerrors.WithStack(cause))
}
