//go:build windows

package fs

// File locking is not implemented on Windows.
func flock(fd int, exclusive bool) error {
	return nil
}

func flockUnlock(fd int) error {
	return nil
}

func isLockNotSupportedError(err error) bool {
	return false
}
