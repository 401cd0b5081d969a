// Package mmdberrors holds the error taxonomy shared by every layer of the
// reader: the stable, numbered error codes from the MaxMind DB C API
// (MMDB_SUCCESS, MMDB_FILE_OPEN_ERROR, ...) plus a single error type that
// carries one of those codes with a human-readable message.
package mmdberrors

import "fmt"

// Code is one of the stable error codes defined by the format's reference
// implementation. Values and messages mirror MMDB_strerror.
type Code int

const (
	Success Code = iota
	FileOpenError
	CorruptDatabase
	InvalidDatabase
	IOError
	OutOfMemory
	UnknownDatabaseFormat
)

// String returns the fixed English message for c, matching MMDB_strerror.
// An unrecognized code returns a fixed "unknown error" message rather than
// falling through undefined, unlike the original C implementation it is
// ported from.
func (c Code) String() string {
	switch c {
	case Success:
		return "Success (not an error)"
	case FileOpenError:
		return "Error opening the specified MaxMind DB file"
	case CorruptDatabase:
		return "The MaxMind DB file's search tree is corrupt"
	case InvalidDatabase:
		return "The MaxMind DB file is invalid (bad metadata)"
	case IOError:
		return "An attempt to read data from the MaxMind DB file failed"
	case OutOfMemory:
		return "A memory allocation call failed"
	case UnknownDatabaseFormat:
		return "The MaxMind DB file is in a format this library can't handle " +
			"(unknown record size or binary format version)"
	default:
		return "Unknown error code"
	}
}

// DatabaseError is the concrete error type returned for every non-success
// Code. It carries the code so callers can branch on it (see Code) while
// still satisfying the error interface with a descriptive message.
type DatabaseError struct {
	code    Code
	message string
}

// Code reports the stable error code this error carries.
func (e DatabaseError) Code() Code {
	return e.code
}

func (e DatabaseError) Error() string {
	return e.message
}

// NewOffsetError reports an out-of-bounds read while decoding the data
// section: the search tree or decoder walked past the end of the image.
func NewOffsetError() DatabaseError {
	return DatabaseError{CorruptDatabase, "unexpected end of database"}
}

// NewInvalidDatabaseError reports a format or data problem: a missing
// marker or bad metadata at open time, or a malformed data-section value
// (bad float size, over-long pointer chain, non-string map key) found
// while decoding.
func NewInvalidDatabaseError(format string, args ...any) DatabaseError {
	return DatabaseError{InvalidDatabase, fmt.Sprintf(format, args...)}
}

// NewCorruptDatabaseError reports corruption detected while walking the
// search tree or decoding a data-section element at lookup time.
func NewCorruptDatabaseError(format string, args ...any) DatabaseError {
	return DatabaseError{CorruptDatabase, fmt.Sprintf(format, args...)}
}

// NewUnknownFormatError reports a structurally valid but unsupported
// metadata record (wrong record_size or binary_format_major_version).
func NewUnknownFormatError(format string, args ...any) DatabaseError {
	return DatabaseError{UnknownDatabaseFormat, fmt.Sprintf(format, args...)}
}

// NewFileOpenError wraps an OS-level open/stat failure.
func NewFileOpenError(err error) DatabaseError {
	return DatabaseError{FileOpenError, fmt.Sprintf("error opening database file: %v", err)}
}

// NewIOError wraps a short read, mmap failure, or other I/O failure
// encountered after the file was successfully opened.
func NewIOError(err error) DatabaseError {
	return DatabaseError{IOError, fmt.Sprintf("error reading database file: %v", err)}
}
