package vfs

import "strings"

// validateName enforces the naming rules for a folder or file: non-empty,
// at most MaxNameLength bytes, and containing neither '/' nor '\'.
func validateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.ContainsAny(name, "/\\") {
		return ErrNameHasDelimiter
	}
	return nil
}
