// Package decoder implements the MaxMind DB data-section decoder: the
// tagged, variable-length, self-describing encoding used for every value
// reachable from the search tree and for the metadata record itself.
package decoder

// Kind identifies the on-disk type tag of a decoded data-section element.
// The numeric values match the control-byte type field defined by the
// MaxMind DB format spec.
type Kind int

const (
	KindExtended Kind = iota
	KindPointer
	KindString
	KindFloat64
	KindBytes
	KindUint16
	KindUint32
	KindMap
	KindInt32
	KindUint64
	KindUint128
	KindSlice
	// KindContainer and KindEndMarker are reserved by the format and do
	// not appear in well-formed data. DecodeOne rejects either tag with a
	// non-zero size; with size 0 it returns an Element of that Kind.
	KindContainer
	KindEndMarker
	KindBool
	KindFloat32
)

func (k Kind) String() string {
	switch k {
	case KindExtended:
		return "extended"
	case KindPointer:
		return "pointer"
	case KindString:
		return "string"
	case KindFloat64:
		return "float64"
	case KindBytes:
		return "bytes"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindMap:
		return "map"
	case KindInt32:
		return "int32"
	case KindUint64:
		return "uint64"
	case KindUint128:
		return "uint128"
	case KindSlice:
		return "slice"
	case KindBool:
		return "bool"
	case KindFloat32:
		return "float32"
	default:
		return "unknown"
	}
}
