// Package state saves and restores the parameter values of a unit as an
// opaque blob a host can keep with its session.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/midiunit/pkg/framework/param"
)

// ErrInvalidState is returned for blobs this package did not write.
var ErrInvalidState = errors.New("invalid state")

const (
	magic = "MIDIUNIT"

	// Version is the blob layout written by Save.
	Version uint32 = 1

	// maxEntries bounds what Load will read from an untrusted blob.
	maxEntries = 1 << 16
)

// Manager handles unit state saving and loading
type Manager struct {
	version uint32
	store   *param.Store
}

// NewManager creates a new state manager
func NewManager(store *param.Store) *Manager {
	return &Manager{
		version: Version,
		store:   store,
	}
}

// Save writes every parameter's address and plain value to w.
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	params := m.store.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(params))); err != nil {
		return err
	}

	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.Address); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.Value()); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a blob written by Save and applies it. Unknown addresses,
// read-only parameters and non-finite values are skipped so older units can
// load newer state; values are clamped to each parameter's range. Nothing is applied unless the whole blob decodes.
func (m *Manager) Load(r io.Reader) (applied int, err error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if string(header) != magic {
		return 0, fmt.Errorf("%w: bad header %q", ErrInvalidState, header)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if version == 0 || version > m.version {
		return 0, fmt.Errorf("%w: state version %d is newer than supported version %d", ErrInvalidState, version, m.version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if count > maxEntries {
		return 0, fmt.Errorf("%w: %d entries", ErrInvalidState, count)
	}

	type entry struct {
		Address uint64
		Value   float64
	}
	entries := make([]entry, count)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	for _, e := range entries {
		if m.store.Validate(e.Address, e.Value) != nil {
			continue
		}
		if err := m.store.SetParameter(e.Address, e.Value); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
