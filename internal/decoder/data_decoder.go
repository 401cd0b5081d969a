package decoder

import (
	"encoding/binary"
	"math"

	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

// maximumDataStructureDepth bounds how many levels of nested maps and
// arrays Skip descends through. This is the value used by libmaxminddb.
const maximumDataStructureDepth = 512

// maxPointerHops bounds the pointer-follow loop in DecodeOneFollow. The
// format forbids pointer-to-pointer, but a corrupt file could otherwise
// drive an unbounded chase; DecodeOneFollow stays idempotent by capping it.
const maxPointerHops = 16

// Decoder decodes tagged elements out of a single data section. The byte
// slice is addressed relative to its own start: offset 0 is the first byte
// following the data-section separator (or, for the metadata section, the
// first byte following the METADATA_MARKER).
type Decoder struct {
	buffer []byte
}

// New creates a Decoder over buffer.
func New(buffer []byte) Decoder {
	return Decoder{buffer: buffer}
}

// Len returns the size of the decoded section in bytes.
func (d *Decoder) Len() uint {
	return uint(len(d.buffer))
}

// DecodeOne decodes the single tagged element at offset without following a
// pointer. For a KindPointer element, Element.Pointer carries the resolved
// target offset and Element.OffsetToNext points past the pointer's own
// encoding (not past the pointed-to value).
func (d *Decoder) DecodeOne(offset uint) (Element, error) {
	kind, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return Element{}, err
	}
	return d.decodeFromType(kind, size, offset, dataOffset)
}

// DecodeOneFollow decodes the element at offset and, if it is a pointer,
// transparently follows it (bounded, so a malformed chain cannot hang). The
// returned Element's OffsetToNext is always the cursor immediately after
// the outermost pointer's own encoding, matching decode_one_follow in the
// original C implementation - but Element.Body still gives the resolved
// value's own offset, so a caller descending into a pointer-followed
// map or slice finds its children in the right place.
func (d *Decoder) DecodeOneFollow(offset uint) (Element, error) {
	el, err := d.DecodeOne(offset)
	if err != nil {
		return Element{}, err
	}
	outerNext := el.OffsetToNext
	for hops := 0; el.Kind == KindPointer; hops++ {
		if hops >= maxPointerHops {
			return Element{}, mmdberrors.NewInvalidDatabaseError(
				"the MaxMind DB file's data section contains a pointer chain that is too long",
			)
		}
		el, err = d.DecodeOne(el.Pointer)
		if err != nil {
			return Element{}, err
		}
	}
	el.OffsetToNext = outerNext
	return el, nil
}

func (d *Decoder) decodeCtrlData(offset uint) (Kind, uint, uint, error) {
	if offset >= uint(len(d.buffer)) {
		return 0, 0, 0, mmdberrors.NewOffsetError()
	}
	ctrlByte := d.buffer[offset]
	newOffset := offset + 1

	kind := Kind(ctrlByte >> 5)
	if kind == KindExtended {
		if newOffset >= uint(len(d.buffer)) {
			return 0, 0, 0, mmdberrors.NewOffsetError()
		}
		kind = Kind(d.buffer[newOffset]) + 7
		newOffset++
	}

	size, newOffset, err := d.sizeFromCtrlByte(ctrlByte, newOffset, kind)
	return kind, size, newOffset, err
}

func (d *Decoder) sizeFromCtrlByte(ctrlByte byte, offset uint, kind Kind) (uint, uint, error) {
	size := uint(ctrlByte & 0x1f)
	if kind == KindExtended {
		return size, offset, nil
	}
	if size < 29 {
		return size, offset, nil
	}

	bytesToRead := size - 28
	newOffset := offset + bytesToRead
	if newOffset > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}

	switch size {
	case 29:
		return 29 + uint(d.buffer[offset]), offset + 1, nil
	case 30:
		return 285 + uint(uintFromBytes(d.buffer[offset:newOffset])), newOffset, nil
	default:
		return 65821 + uint(uintFromBytes(d.buffer[offset:newOffset])), newOffset, nil
	}
}

// decodeFromType fills in the payload for kind/size starting at dataOffset.
// ctrlOffset is the element's control-byte offset, recorded on the result.
func (d *Decoder) decodeFromType(kind Kind, size, ctrlOffset, dataOffset uint) (Element, error) {
	el := Element{Kind: kind, Offset: ctrlOffset}

	switch kind {
	case KindPointer:
		pointer, newOffset, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return Element{}, err
		}
		el.Pointer = pointer
		el.OffsetToNext = newOffset
		el.Body = newOffset
		return el, nil
	case KindMap, KindSlice:
		el.Size = size
		el.OffsetToNext = dataOffset
		el.Body = dataOffset
		return el, nil
	case KindBool:
		el.Bool = size != 0
		el.OffsetToNext = dataOffset
		el.Body = dataOffset
		return el, nil
	}

	if size == 0 && kind != KindUint16 && kind != KindUint32 && kind != KindInt32 {
		el.OffsetToNext = dataOffset
		el.Body = dataOffset
		return el, nil
	}

	end := dataOffset + size
	if end > uint(len(d.buffer)) {
		return Element{}, mmdberrors.NewOffsetError()
	}
	payload := d.buffer[dataOffset:end]
	el.OffsetToNext = end
	el.Body = end

	switch kind {
	case KindUint16:
		el.Uint16 = uint16(uintFromBytes(payload))
	case KindUint32:
		el.Uint32 = uint32(uintFromBytes(payload))
	case KindUint64:
		el.Uint64 = uintFromBytes(payload)
	case KindInt32:
		el.Int32 = int32FromBytes(payload)
	case KindUint128:
		hi, lo := uint128FromBytes(payload)
		el.Uint128Hi, el.Uint128Lo = hi, lo
	case KindFloat32:
		if size != 4 {
			return Element{}, mmdberrors.NewInvalidDatabaseError(
				"the MaxMind DB file's data section contains bad data (float32 size of %v)", size,
			)
		}
		el.Float32 = math.Float32frombits(binary.BigEndian.Uint32(payload))
	case KindFloat64:
		if size != 8 {
			return Element{}, mmdberrors.NewInvalidDatabaseError(
				"the MaxMind DB file's data section contains bad data (float64 size of %v)", size,
			)
		}
		el.Float64 = math.Float64frombits(binary.BigEndian.Uint64(payload))
	case KindString:
		el.String = string(payload)
	case KindBytes:
		b := make([]byte, len(payload))
		copy(b, payload)
		el.Bytes = b
	default:
		return Element{}, mmdberrors.NewInvalidDatabaseError("unknown type: %d", kind)
	}

	return el, nil
}

// decodePointer implements the four pointer-size encodings from §4.3 of the
// format spec, returning the resolved data-section-relative target offset.
func (d *Decoder) decodePointer(size, offset uint) (uint, uint, error) {
	pointerSize := ((size >> 3) & 0x3) + 1
	newOffset := offset + pointerSize
	if newOffset > uint(len(d.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	pointerBytes := d.buffer[offset:newOffset]

	var prefix uint
	if pointerSize != 4 {
		prefix = size & 0x7
	}
	unpacked := uint(prefixedUintFromBytes(prefix, pointerBytes))

	var base uint
	switch pointerSize {
	case 2:
		base = 2048
	case 3:
		base = 526336
	}

	return unpacked + base, newOffset, nil
}

// Skip advances past numberToSkip complete values (following the format's
// sizing rules for maps/arrays/pointers) starting at offset, returning the
// offset of the first byte after the skipped run. It mirrors skip_hash_array
// in the original C implementation, generalized to a count so the map/array
// case can skip a whole run without per-value recursion bookkeeping at the
// call site.
func (d *Decoder) Skip(offset, numberToSkip uint) (uint, error) {
	return d.skip(offset, numberToSkip, 0)
}

func (d *Decoder) skip(offset, numberToSkip uint, depth int) (uint, error) {
	if numberToSkip == 0 {
		return offset, nil
	}
	if depth > maximumDataStructureDepth {
		return 0, mmdberrors.NewInvalidDatabaseError(
			"exceeded maximum data structure depth; database is likely corrupt",
		)
	}

	kind, size, offset, err := d.decodeCtrlData(offset)
	if err != nil {
		return 0, err
	}

	switch kind {
	case KindPointer:
		_, offset, err = d.decodePointer(size, offset)
		if err != nil {
			return 0, err
		}
	case KindMap:
		offset, err = d.skip(offset, 2*size, depth+1)
		if err != nil {
			return 0, err
		}
	case KindSlice:
		offset, err = d.skip(offset, size, depth+1)
		if err != nil {
			return 0, err
		}
	case KindBool:
		// no payload bytes
	default:
		if size != 0 || kind == KindUint16 || kind == KindUint32 || kind == KindInt32 {
			offset += size
		}
	}

	return d.skip(offset, numberToSkip-1, depth)
}

func uintFromBytes(b []byte) uint64 {
	return prefixedUintFromBytes(0, b)
}

func prefixedUintFromBytes(prefix uint, b []byte) uint64 {
	val := uint64(prefix)
	for _, c := range b {
		val = (val << 8) | uint64(c)
	}
	return val
}

func int32FromBytes(b []byte) int32 {
	var v int32
	for _, c := range b {
		v = (v << 8) | int32(c)
	}
	return v
}

// uint128FromBytes left-pads b to 16 bytes with zeros and returns the two
// 64-bit halves (hi:lo) of the resulting big-endian uint128.
func uint128FromBytes(b []byte) (hi, lo uint64) {
	var padded [16]byte
	copy(padded[16-len(b):], b)
	hi = binary.BigEndian.Uint64(padded[:8])
	lo = binary.BigEndian.Uint64(padded[8:])
	return hi, lo
}
