package maxminddb

import (
	"runtime"

	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

type verifier struct {
	reader *Reader
}

// Verify checks that the database is valid: it validates the metadata, the
// search tree, and the data section. This is stricter than the format
// specification requires and may reject databases that Lookup can still
// read without error.
func (r *Reader) Verify() error {
	v := verifier{r}
	if err := v.verifyMetadata(); err != nil {
		return err
	}

	err := v.verifyDatabase()
	runtime.KeepAlive(v.reader)
	return err
}

func (v *verifier) verifyMetadata() error {
	metadata := v.reader.Metadata

	if metadata.BinaryFormatMajorVersion != 2 {
		return testError("binary_format_major_version", 2, metadata.BinaryFormatMajorVersion)
	}
	if metadata.DatabaseType == "" {
		return testError("database_type", "non-empty string", metadata.DatabaseType)
	}
	if len(metadata.Description) == 0 {
		return testError("description", "non-empty map", metadata.Description)
	}
	if metadata.IPVersion != 4 && metadata.IPVersion != 6 {
		return testError("ip_version", "4 or 6", metadata.IPVersion)
	}
	if metadata.RecordSize != 24 && metadata.RecordSize != 28 && metadata.RecordSize != 32 {
		return testError("record_size", "24, 28, or 32", metadata.RecordSize)
	}
	if metadata.NodeCount == 0 {
		return testError("node_count", "positive integer", metadata.NodeCount)
	}
	return nil
}

func (v *verifier) verifyDatabase() error {
	if err := v.verifySearchTree(); err != nil {
		return err
	}
	return v.verifyDataSectionSeparator()
}

// verifySearchTree walks every network and confirms each one's record
// resolves and decodes without error, which exercises every reachable
// path through both the tree and the data section.
func (v *verifier) verifySearchTree() error {
	for result := range v.reader.Networks() {
		if err := result.Err(); err != nil {
			return err
		}
		if _, err := result.Materialize(); err != nil {
			return err
		}
	}
	return nil
}

func (v *verifier) verifyDataSectionSeparator() error {
	separatorStart := v.reader.Metadata.NodeCount * v.reader.Metadata.FullRecordByteSize()
	if separatorStart+dataSectionSeparatorSize > uint(len(v.reader.buffer)) {
		return mmdberrors.NewInvalidDatabaseError("the data section separator is out of bounds")
	}
	separator := v.reader.buffer[separatorStart : separatorStart+dataSectionSeparatorSize]
	for _, b := range separator {
		if b != 0 {
			return mmdberrors.NewInvalidDatabaseError(
				"unexpected non-zero byte in data section separator: %v", separator,
			)
		}
	}
	return nil
}

func testError(field string, expected, actual any) error {
	return mmdberrors.NewInvalidDatabaseError("%v - Expected: %v Actual: %v", field, expected, actual)
}
