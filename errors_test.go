package maxminddb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

func TestStrerrorMatchesKnownCodes(t *testing.T) {
	require.Equal(t, "Success (not an error)", Strerror(Success))
	require.Equal(t, "The MaxMind DB file's search tree is corrupt", Strerror(CorruptDatabase))
}

func TestStrerrorUnknownCode(t *testing.T) {
	require.Equal(t, "Unknown error code", Strerror(ErrorCode(999)))
}

func TestCodeExtractsErrorCode(t *testing.T) {
	err := mmdberrors.NewInvalidDatabaseError("bad metadata: %d", 7)
	code, ok := Code(err)
	require.True(t, ok)
	require.Equal(t, InvalidDatabase, code)
}

func TestCodeReportsFalseForOrdinaryError(t *testing.T) {
	_, ok := Code(fmt.Errorf("plain error"))
	require.False(t, ok)
}

func TestCodeReportsFalseForNil(t *testing.T) {
	_, ok := Code(nil)
	require.False(t, ok)
}

func TestCodeUnwrapsWrappedErrors(t *testing.T) {
	inner := mmdberrors.NewCorruptDatabaseError("walked off the end of the tree")
	wrapped := fmt.Errorf("while looking up address: %w", inner)

	code, ok := Code(wrapped)
	require.True(t, ok)
	require.Equal(t, CorruptDatabase, code)
}

func TestLibVersionIsNonEmpty(t *testing.T) {
	require.NotEmpty(t, LibVersion())
}
