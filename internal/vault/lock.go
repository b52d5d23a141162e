package vault

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/vaultsync/vaultsync/internal/utils"
)

// Lock keeps two scheduled runs from syncing the same vault at once.
type Lock struct {
	flock *flock.Flock
}

// NewLock returns a Lock backed by the file at path.
func NewLock(path string) *Lock {
	return &Lock{flock: flock.New(path)}
}

// Acquire takes the lock without blocking. It returns ErrLocked if another
// process holds it.
func (l *Lock) Acquire() error {
	if err := utils.EnsureParent(l.flock.Path()); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.flock.Path(), err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Release drops the lock and removes the lock file. Releasing a lock that was
// never acquired is a no-op.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.flock.Path(), err)
	}
	return os.Remove(l.flock.Path())
}
