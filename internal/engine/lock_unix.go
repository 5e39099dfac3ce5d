//go:build unix

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile guards an environment directory against concurrent processes.
// Writable environments take an exclusive flock; read-only ones share it
// unless Exclusive was requested.
type lockFile struct {
	f *os.File
}

func openLockFile(path string, exclusive bool, mode os.FileMode) (*lockFile, int) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, Invalid
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, Busy
	}
	return &lockFile{f: f}, Success
}

func (l *lockFile) close() {
	if l == nil || l.f == nil {
		return
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
	l.f = nil
}
