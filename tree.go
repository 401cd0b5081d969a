package maxminddb

import (
	"encoding/binary"

	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

// searchTree wraps the raw tree bytes (the file up to the data-section
// separator) and knows how to read one record out of it, mirroring the
// reference implementation's per-record-size accessor functions
// (record_value_for_24/28/32).
type searchTree struct {
	buffer     []byte
	nodeCount  uint
	recordSize uint
}

// readNode returns both records (left, right) of the node at index.
func (t *searchTree) readNode(index uint) (left, right uint, err error) {
	switch t.recordSize {
	case 24:
		return t.readNode24(index)
	case 28:
		return t.readNode28(index)
	case 32:
		return t.readNode32(index)
	default:
		return 0, 0, mmdberrors.NewUnknownFormatError(
			"unsupported record size of %d bits", t.recordSize,
		)
	}
}

func (t *searchTree) readNode24(index uint) (uint, uint, error) {
	base := index * 6
	if base+6 > uint(len(t.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	row := t.buffer[base : base+6]
	return uint24(row[0:3]), uint24(row[3:6]), nil
}

func (t *searchTree) readNode28(index uint) (uint, uint, error) {
	base := index * 7
	if base+7 > uint(len(t.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	row := t.buffer[base : base+7]
	middle := row[3]
	left := uint(row[0])<<16 | uint(row[1])<<8 | uint(row[2])
	left |= uint(middle>>4) << 24
	right := uint(row[4])<<16 | uint(row[5])<<8 | uint(row[6])
	right |= uint(middle&0x0f) << 24
	return left, right, nil
}

func (t *searchTree) readNode32(index uint) (uint, uint, error) {
	base := index * 8
	if base+8 > uint(len(t.buffer)) {
		return 0, 0, mmdberrors.NewOffsetError()
	}
	row := t.buffer[base : base+8]
	return uint(binary.BigEndian.Uint32(row[0:4])), uint(binary.BigEndian.Uint32(row[4:8])), nil
}

func uint24(b []byte) uint {
	return uint(b[0])<<16 | uint(b[1])<<8 | uint(b[2])
}

// recordType classifies a tree record's value: a node to keep descending
// into, a pointer into the data section (the record resolves to a value),
// or "no data" (the searched address isn't present in the database).
type recordType int

const (
	recordNode recordType = iota
	recordData
	recordEmpty
)

// classify reports what kind of record value is and, for recordData, the
// offset into the data section it names.
func (t *searchTree) classify(value uint) (recordType, uint) {
	if value == t.nodeCount {
		return recordEmpty, 0
	}
	if value > t.nodeCount {
		return recordData, value - t.nodeCount - 16
	}
	return recordNode, value
}

// walk descends the tree consuming bits [startBit, stopBit) of ip (most
// significant bit first, starting from startNode), returning the record
// value at the point the walk stops along with how many bits were actually
// consumed (of the requested range) before stopping. It mirrors the
// reference implementation's lookup_bit_value loop rather than
// traverseTree24/28/32, to stay agnostic of record width.
func (t *searchTree) walk(ip []byte, startBit, stopBit int, startNode uint) (uint, int, error) {
	node := startNode
	i := startBit
	for ; i < stopBit; i++ {
		if node >= t.nodeCount {
			break
		}
		bit := bitAt(ip, i)
		left, right, err := t.readNode(node)
		if err != nil {
			return 0, 0, err
		}
		if bit == 0 {
			node = left
		} else {
			node = right
		}
	}
	return node, i - startBit, nil
}

func bitAt(ip []byte, bitIndex int) byte {
	byteIndex := bitIndex >> 3
	if byteIndex >= len(ip) {
		return 0
	}
	return (ip[byteIndex] >> (7 - uint(bitIndex%8))) & 1 //nolint:gosec // bitIndex%8 is always in [0,7]
}
