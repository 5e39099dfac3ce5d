//go:build windows

package engine

import (
	"os"

	"golang.org/x/sys/windows"
)

type lockFile struct {
	f *os.File
}

func openLockFile(path string, exclusive bool, mode os.FileMode) (*lockFile, int) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, Invalid
	}
	var flags uint32 = windows.LOCKFILE_FAIL_IMMEDIATELY
	if exclusive {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol); err != nil {
		f.Close()
		return nil, Busy
	}
	return &lockFile{f: f}, Success
}

func (l *lockFile) close() {
	if l == nil || l.f == nil {
		return
	}
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, ol)
	l.f.Close()
	l.f = nil
}
