package fs

//go:generate mockgen -destination=fsmock/fs_mock.go -package=fsmock . RlspFS

import (
	"os"

	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// RlspFS wraps the filesystem operations used by the server outside of the protocol.
type RlspFS interface {
	MkdirAll(path string) error
	FileExists(path string) (bool, error)
	WriteFile(name string, data string) error
	Remove(name string) error
}

type fsImpl struct{}

// New creates a new RlspFS.
func New() RlspFS {
	return fsImpl{}
}

// MkdirAll creates a directory and all its parents.
func (fsImpl) MkdirAll(path string) error { return os.MkdirAll(path, os.ModePerm) }

func (fsImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (fsImpl) WriteFile(name string, data string) error {
	return os.WriteFile(name, []byte(data), 0644)
}

func (fsImpl) Remove(name string) error {
	return os.Remove(name)
}
