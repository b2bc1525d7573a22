package notebook

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// LockPath is the hidden advisory lock file guarding the notebook at path.
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// Lock blocks until this process holds the advisory lock for the notebook at
// path or ctx ends. The returned func releases it.
func Lock(ctx context.Context, path string) (func() error, error) {
	fl := flock.New(LockPath(path))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock notebook %s: %w", filepath.Base(path), err)
	}
	if !locked {
		return nil, fmt.Errorf("lock notebook %s: not acquired", filepath.Base(path))
	}
	return fl.Unlock, nil
}
