//go:build appengine

package maxminddb

import "errors"

// appengine (and similarly sandboxed runtimes) offer no mmap syscall.
// Open falls back to reading the whole file into memory when it sees
// errors.ErrUnsupported.
func mmap(_ int, _ int) (data []byte, err error) {
	return nil, errors.ErrUnsupported
}

func munmap(_ []byte) error {
	return nil
}
