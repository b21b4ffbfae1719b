package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"howett.net/plist"
)

// ErrCorrupt is returned by LoadPlist when a store file exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt store file")

// LoadPlist decodes the property list stored as name into v.
// It returns false with a nil error when the file does not exist.
func (d *Documents) LoadPlist(name string, v any) (bool, error) {
	data, err := d.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if _, err := plist.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return true, nil
}

// SavePlist atomically writes v as a binary property list named name.
func (d *Documents) SavePlist(name string, v any) error {
	data, err := plist.Marshal(v, plist.BinaryFormat)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return d.WriteFile(name, data)
}
