package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const lockFileName = "lock"

// ErrBusy means another toggle invocation holds the lock right now. The
// caller reports it and exits without side effects instead of queuing.
var ErrBusy = errors.New("another invocation is already in progress")

// Lock is an exclusive advisory lock serializing toggle critical sections.
// The kernel drops the lock when the descriptor closes, so it cannot outlive
// the invocation even on abnormal termination.
type Lock struct {
	file *os.File
}

// AcquireLock takes the lock non-blockingly. A held lock yields ErrBusy.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}

	path := filepath.Join(dir, lockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}

	return &Lock{file: file}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
