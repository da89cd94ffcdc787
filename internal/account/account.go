// Package account is the fixed preset login table for the virtual
// filesystem. It is intentionally not pluggable: the image format itself
// only has room for three owner identities.
package account

import "github.com/vdiskfs/vdisk/internal/inode"

type credentials struct {
	user, pass string
	id         uint8
}

var presets = []credentials{
	{user: "ROOT", pass: "ROOT666666", id: uint8(inode.OwnerRoot)},
	{user: "GUEST", pass: "GUEST666666", id: uint8(inode.OwnerGuest)},
}

// Lookup matches user/pass against the preset accounts, returning the
// owner id and true on success.
func Lookup(user, pass string) (uint8, bool) {
	for _, c := range presets {
		if c.user == user && c.pass == pass {
			return c.id, true
		}
	}
	return uint8(inode.OwnerNull), false
}

// Name returns the preset account name for an owner id, or "" for NULL or
// an id with no preset (there is none beyond ROOT/GUEST today).
func Name(id uint8) string {
	for _, c := range presets {
		if c.id == id {
			return c.user
		}
	}
	return ""
}
