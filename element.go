package maxminddb

import "github.com/learninton/libmaxminddb/internal/decoder"

// Kind identifies which field of an Element is populated. The numeric
// values match the MaxMind DB format's control-byte type tags.
type Kind = decoder.Kind

// Kind constants, re-exported from the internal decoder so callers never
// need to import an internal package to inspect an Element.
const (
	KindExtended  = decoder.KindExtended
	KindPointer   = decoder.KindPointer
	KindString    = decoder.KindString
	KindFloat64   = decoder.KindFloat64
	KindBytes     = decoder.KindBytes
	KindUint16    = decoder.KindUint16
	KindUint32    = decoder.KindUint32
	KindMap       = decoder.KindMap
	KindInt32     = decoder.KindInt32
	KindUint64    = decoder.KindUint64
	KindUint128   = decoder.KindUint128
	KindSlice     = decoder.KindSlice
	KindContainer = decoder.KindContainer
	KindEndMarker = decoder.KindEndMarker
	KindBool      = decoder.KindBool
	KindFloat32   = decoder.KindFloat32
)

// Element is a single decoded data-section value, the Go analogue of the
// reference implementation's MMDB_entry_data_s. Exactly one payload field
// is meaningful for a given Kind; see the Kind constants above.
//
// Element.Bytes and Element.String are copies of the database image's
// bytes, so they stay valid after the Reader that produced them is closed.
type Element = decoder.Element
