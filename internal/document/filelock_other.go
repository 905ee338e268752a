//go:build !unix

package document

import "os"

// lockFile is a stub on non-Unix platforms; only the in-process queue
// serializes access there.
func lockFile(f *os.File) error { return nil }

func unlockFile(f *os.File) error { return nil }
