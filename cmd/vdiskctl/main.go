// Command vdiskctl is a small demonstration CLI around the vdisk module:
// create an image, log in, and list the root directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vdiskfs/vdisk"
	"github.com/vdiskfs/vdisk/vfs"
)

func check(err error) {
	if err == nil {
		return
	}
	log.Fatal(err)
}

func main() {
	var (
		createPath string
		openPath   string
		user       string
		pass       string
	)
	flag.StringVar(&createPath, "create", "", "create a new image at this path")
	flag.StringVar(&openPath, "open", "", "open an existing image at this path")
	flag.StringVar(&user, "user", "GUEST", "account to log in as")
	flag.StringVar(&pass, "pass", "GUEST666666", "account password")
	flag.Parse()

	var (
		e   *vfs.Engine
		err error
	)
	switch {
	case createPath != "":
		e, err = vdisk.Create(createPath, vfs.Capacity128MB)
	case openPath != "":
		e, err = vdisk.Open(openPath)
	default:
		fmt.Fprintln(os.Stderr, "usage: vdiskctl -create PATH | -open PATH")
		os.Exit(2)
	}
	check(err)

	if !e.Login(user, pass) {
		log.Fatalf("login failed for user %q", user)
	}

	res, err := e.List()
	check(err)

	fmt.Printf("%s  (%d/%d bytes used)\n", e.GetWorkingDir(), e.GetVDiskUsedSize(), e.GetVDiskCapacity())
	for _, d := range res.Folders {
		fmt.Printf("  %s/\n", d)
	}
	for _, f := range res.Files {
		fmt.Printf("  %-20s %8d bytes\n", f.Name, f.Size)
	}

	check(e.UninstallVirtualDisk())
}
