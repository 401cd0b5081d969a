package maxminddb

import "github.com/learninton/libmaxminddb/internal/mmdberrors"

// ErrorCode is one of the stable, numbered error codes every operation in
// this package can fail with. The numbering matches the MaxMind DB
// reference implementation's MMDB_* error constants.
type ErrorCode = mmdberrors.Code

// The error code taxonomy. SUCCESS is never returned as an error value; it
// exists so Strerror(Success) has a defined message.
const (
	Success               = mmdberrors.Success
	FileOpenError         = mmdberrors.FileOpenError
	CorruptDatabase       = mmdberrors.CorruptDatabase
	InvalidDatabase       = mmdberrors.InvalidDatabase
	IOError               = mmdberrors.IOError
	OutOfMemory           = mmdberrors.OutOfMemory
	UnknownDatabaseFormat = mmdberrors.UnknownDatabaseFormat
)

// Error is the concrete error type this package returns for database
// failures, possibly wrapped with path context. Use Code to recover the
// ErrorCode from an error value returned by Open, Lookup, GetValue, or
// Materialize. Lookup's errors for a closed Reader and for an IPv6 address
// on an IPv4-only database are plain errors that carry no ErrorCode.
type Error = mmdberrors.DatabaseError

// Strerror returns the fixed, human-readable message for code. Unlike the
// C library this one is ported from, an unrecognized code does not fall
// through undefined behavior: it returns a fixed "unknown error" string.
func Strerror(code ErrorCode) string {
	return code.String()
}

// Code extracts the ErrorCode carried by err, if err is (or wraps) an
// Error produced by this package. It reports false for any other error,
// including nil.
func Code(err error) (ErrorCode, bool) {
	var dbErr Error
	if ok := asDatabaseError(err, &dbErr); ok {
		return dbErr.Code(), true
	}
	return Success, false
}

func asDatabaseError(err error, target *Error) bool {
	for err != nil {
		if dbErr, ok := err.(Error); ok { //nolint:errorlint // Error has no Unwrap chain to walk
			*target = dbErr
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
