package maxminddb

import (
	"time"

	"github.com/learninton/libmaxminddb/internal/decoder"
	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

// Metadata holds the metadata record decoded from the tail of the MaxMind
// DB file. Field names and meanings match the METADATA block documented by
// the MaxMind DB format specification.
type Metadata struct {
	// Description maps a language tag (e.g. "en") to a human description
	// of the database.
	Description map[string]string

	// DatabaseType indicates the structure of the records this database
	// associates with each address (e.g. "GeoIP2-City").
	DatabaseType string

	// Languages lists the locale codes for which this database may
	// contain localized data.
	Languages []string

	BinaryFormatMajorVersion uint
	BinaryFormatMinorVersion uint

	// BuildEpoch is the database build timestamp, in Unix epoch seconds.
	BuildEpoch uint64

	// IPVersion is 4 (IPv4-only) or 6 (IPv4 and IPv6).
	IPVersion uint

	// NodeCount is the number of records in the search tree.
	NodeCount uint

	// RecordSize is the width, in bits, of each half of a tree record.
	// Always one of 24, 28, 32.
	RecordSize uint
}

// BuildTime returns the database build time as a time.Time.
func (m Metadata) BuildTime() time.Time {
	return time.Unix(int64(m.BuildEpoch), 0) //nolint:gosec // build_epoch is a recorded timestamp, not attacker-controlled width
}

// FullRecordByteSize is the width, in bytes, of one complete tree record
// (both the left and right half).
func (m Metadata) FullRecordByteSize() uint {
	return m.RecordSize * 2 / 8
}

// Depth is the number of bits consumed walking the search tree for this
// database's IP version: 32 for IPv4-only, 128 for IPv4/IPv6.
func (m Metadata) Depth() int {
	if m.IPVersion == 4 {
		return 32
	}
	return 128
}

// parseMetadata decodes the metadata map at offset 0 of dec in a single
// linear pass, the "fake metadata db" trick described by the format's
// reference implementation: the same tagged-element decoder used for
// ordinary records is parametrized over a second (base, bounds) pair
// rooted at the metadata section instead of the data section.
func parseMetadata(dec *decoder.Decoder) (Metadata, error) {
	root, err := dec.DecodeOneFollow(0)
	if err != nil {
		return Metadata{}, err
	}
	if root.Kind != decoder.KindMap {
		return Metadata{}, mmdberrors.NewInvalidDatabaseError(
			"the MaxMind DB file's metadata is not a map",
		)
	}

	var meta Metadata
	cursor := root.Body
	for i := uint(0); i < root.Size; i++ {
		key, err := dec.DecodeOneFollow(cursor)
		if err != nil {
			return Metadata{}, err
		}
		if key.Kind != decoder.KindString {
			return Metadata{}, mmdberrors.NewInvalidDatabaseError(
				"the MaxMind DB file's metadata has a non-string key",
			)
		}
		cursor = key.OffsetToNext

		switch key.String {
		case "node_count":
			meta.NodeCount, cursor, err = decodeMetaUint(dec, cursor)
		case "record_size":
			meta.RecordSize, cursor, err = decodeMetaUint(dec, cursor)
		case "ip_version":
			meta.IPVersion, cursor, err = decodeMetaUint(dec, cursor)
		case "binary_format_major_version":
			meta.BinaryFormatMajorVersion, cursor, err = decodeMetaUint(dec, cursor)
		case "binary_format_minor_version":
			meta.BinaryFormatMinorVersion, cursor, err = decodeMetaUint(dec, cursor)
		case "build_epoch":
			var v uint
			v, cursor, err = decodeMetaUint(dec, cursor)
			meta.BuildEpoch = uint64(v)
		case "database_type":
			meta.DatabaseType, cursor, err = decodeMetaString(dec, cursor)
		case "languages":
			meta.Languages, cursor, err = decodeMetaStringSlice(dec, cursor)
		case "description":
			meta.Description, cursor, err = decodeMetaStringMap(dec, cursor)
		default:
			cursor, err = dec.Skip(cursor, 1)
		}
		if err != nil {
			return Metadata{}, err
		}
	}

	return meta, nil
}

func decodeMetaUint(dec *decoder.Decoder, offset uint) (uint, uint, error) {
	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return 0, 0, err
	}
	var v uint
	switch el.Kind {
	case decoder.KindUint16:
		v = uint(el.Uint16)
	case decoder.KindUint32:
		v = uint(el.Uint32)
	case decoder.KindUint64:
		v = uint(el.Uint64)
	default:
		return 0, 0, mmdberrors.NewInvalidDatabaseError(
			"expected an unsigned integer in metadata, got %v", el.Kind,
		)
	}
	return v, el.OffsetToNext, nil
}

func decodeMetaString(dec *decoder.Decoder, offset uint) (string, uint, error) {
	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return "", 0, err
	}
	if el.Kind != decoder.KindString {
		return "", 0, mmdberrors.NewInvalidDatabaseError(
			"expected a string in metadata, got %v", el.Kind,
		)
	}
	return el.String, el.OffsetToNext, nil
}

func decodeMetaStringSlice(dec *decoder.Decoder, offset uint) ([]string, uint, error) {
	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return nil, 0, err
	}
	if el.Kind != decoder.KindSlice {
		return nil, 0, mmdberrors.NewInvalidDatabaseError(
			"expected an array in metadata, got %v", el.Kind,
		)
	}
	out := make([]string, 0, el.Size)
	cursor := el.Body
	for i := uint(0); i < el.Size; i++ {
		var s string
		s, cursor, err = decodeMetaString(dec, cursor)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, cursor, nil
}

func decodeMetaStringMap(dec *decoder.Decoder, offset uint) (map[string]string, uint, error) {
	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return nil, 0, err
	}
	if el.Kind != decoder.KindMap {
		return nil, 0, mmdberrors.NewInvalidDatabaseError(
			"expected a map in metadata, got %v", el.Kind,
		)
	}
	out := make(map[string]string, el.Size)
	cursor := el.Body
	for i := uint(0); i < el.Size; i++ {
		var k, v string
		k, cursor, err = decodeMetaString(dec, cursor)
		if err != nil {
			return nil, 0, err
		}
		v, cursor, err = decodeMetaString(dec, cursor)
		if err != nil {
			return nil, 0, err
		}
		out[k] = v
	}
	return out, cursor, nil
}
