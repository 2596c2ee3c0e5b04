package main

import (
	"os"

	"github.com/absfs/absfs"
)

// osFS serves vault reads and writes from the host filesystem. Names are
// used as given, relative to the working directory.
type osFS struct{}

func (osFS) Open(name string) (absfs.File, error) {
	return os.Open(name)
}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFS) Remove(name string) error {
	return os.Remove(name)
}
