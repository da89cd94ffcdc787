package account

import (
	"testing"

	"github.com/vdiskfs/vdisk/internal/inode"
)

func TestLookupPresets(t *testing.T) {
	cases := []struct {
		user, pass string
		wantID     uint8
		wantOK     bool
	}{
		{"ROOT", "ROOT666666", uint8(inode.OwnerRoot), true},
		{"GUEST", "GUEST666666", uint8(inode.OwnerGuest), true},
		{"ROOT", "wrong", 0, false},
		{"nobody", "nothing", 0, false},
	}
	for _, c := range cases {
		id, ok := Lookup(c.user, c.pass)
		if ok != c.wantOK || (ok && id != c.wantID) {
			t.Errorf("Lookup(%q, %q) = (%d, %v), want (%d, %v)", c.user, c.pass, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestNameRoundTrip(t *testing.T) {
	if got := Name(uint8(inode.OwnerRoot)); got != "ROOT" {
		t.Fatalf("Name(OwnerRoot) = %q, want ROOT", got)
	}
	if got := Name(uint8(inode.OwnerNull)); got != "" {
		t.Fatalf("Name(OwnerNull) = %q, want empty", got)
	}
}
