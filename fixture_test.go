package maxminddb

import (
	"bytes"
	"encoding/binary"
	"math"
	"net/netip"

	"github.com/learninton/libmaxminddb/internal/decoder"
)

// This file builds small, valid MMDB images entirely in memory so the
// package's tests don't depend on fixture files. It never needs to decode
// anything itself - only produce bytes the real decoder can read back.

// kv is one key/value pair of a synthetic map value. A plain Go map can't be
// used for this since fixture bytes must come out in a fixed, repeatable
// order.
type kv struct {
	key   string
	value any
}

func encodeValue(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case string:
		writeCtrlByte(buf, decoder.KindString, uint(len(val)))
		buf.WriteString(val)
	case bool:
		size := uint(0)
		if val {
			size = 1
		}
		writeCtrlByte(buf, decoder.KindBool, size)
	case uint16:
		writeCtrlByte(buf, decoder.KindUint16, 2)
		_ = binary.Write(buf, binary.BigEndian, val)
	case uint32:
		writeCtrlByte(buf, decoder.KindUint32, 4)
		_ = binary.Write(buf, binary.BigEndian, val)
	case uint64:
		writeCtrlByte(buf, decoder.KindUint64, 8)
		_ = binary.Write(buf, binary.BigEndian, val)
	case int32:
		writeCtrlByte(buf, decoder.KindInt32, 4)
		_ = binary.Write(buf, binary.BigEndian, val)
	case float32:
		writeCtrlByte(buf, decoder.KindFloat32, 4)
		_ = binary.Write(buf, binary.BigEndian, math.Float32bits(val))
	case float64:
		writeCtrlByte(buf, decoder.KindFloat64, 8)
		_ = binary.Write(buf, binary.BigEndian, math.Float64bits(val))
	case []byte:
		writeCtrlByte(buf, decoder.KindBytes, uint(len(val)))
		buf.Write(val)
	case []kv:
		writeCtrlByte(buf, decoder.KindMap, uint(len(val)))
		for _, pair := range val {
			encodeValue(buf, pair.key)
			encodeValue(buf, pair.value)
		}
	case []any:
		writeCtrlByte(buf, decoder.KindSlice, uint(len(val)))
		for _, item := range val {
			encodeValue(buf, item)
		}
	default:
		panic("fixture: unsupported value type")
	}
}

// writeCtrlByte encodes the control byte (and, for extended types, the
// follow-up type byte) for kind/size. Every fixture in this package keeps
// size under 29, so the multi-byte size encoding is never exercised here.
func writeCtrlByte(buf *bytes.Buffer, kind decoder.Kind, size uint) {
	if size >= 29 {
		panic("fixture: size too large for this encoder")
	}
	if kind >= 8 {
		buf.WriteByte(byte(size)) // top 3 bits 0 == KindExtended
		buf.WriteByte(byte(kind - 7))
		return
	}
	buf.WriteByte(byte(kind)<<5 | byte(size))
}

// writePointer appends a 2-byte (pointer-size-1) pointer to target, the
// smallest of the format's four pointer encodings. Only targets up to 2047
// are representable this way, which is every target fixtures in this
// package need.
func writePointer(buf *bytes.Buffer, target uint) {
	if target > 0x7FF {
		panic("fixture: pointer target too large for this helper")
	}
	prefix := byte((target >> 8) & 0x7)
	buf.WriteByte(byte(decoder.KindPointer)<<5 | prefix)
	buf.WriteByte(byte(target))
}

// treeEntry is one leaf the synthetic search tree should resolve to,
// expressed in the tree's own physical bit numbering: ipBytes is exactly
// depth/8 bytes long (4 for an IPv4-only fixture, 16 for a dual-stack one),
// and prefixLen counts bits within ipBytes, not the "virtual" 128-bit space
// Result.Network reports.
type treeEntry struct {
	ipBytes   []byte
	prefixLen int
	dataBytes any
}

func v4Entry(cidr string, value any) treeEntry {
	p := netip.MustParsePrefix(cidr)
	addr := p.Addr().As4()
	return treeEntry{ipBytes: addr[:], prefixLen: p.Bits(), dataBytes: value}
}

func v6Entry(cidr string, value any) treeEntry {
	p := netip.MustParsePrefix(cidr)
	addr := p.Addr().As16()
	return treeEntry{ipBytes: addr[:], prefixLen: p.Bits(), dataBytes: value}
}

// rawRecord is either a reference to another node (by index into the
// flattened node slice), the "no data here" sentinel, or a data-section
// byte offset - resolved to its final on-disk integer value once the whole
// tree is built and the node count is known.
type rawRecord struct {
	isLeaf    bool
	isEmpty   bool
	node      uint
	dataBytes uint
}

type rawNode struct {
	left, right rawRecord
}

// buildTree lays entries out as a binary trie: one node per bit along each
// entry's prefix, a leaf record once that entry's prefix length is reached,
// and an empty record on any branch no entry takes. Entries must not overlap.
func buildTree(entries []treeEntry, dataOffsets []uint) []rawNode {
	var nodes []rawNode
	var build func(es []treeEntry, idx []int, bit int) rawRecord
	build = func(es []treeEntry, idx []int, bit int) rawRecord {
		if len(idx) == 0 {
			return rawRecord{isEmpty: true}
		}
		if len(idx) == 1 && es[idx[0]].prefixLen <= bit {
			return rawRecord{isLeaf: true, dataBytes: dataOffsets[idx[0]]}
		}
		var zeros, ones []int
		for _, i := range idx {
			b := es[i].ipBytes
			byteIdx := bit >> 3
			bitPos := 7 - uint(bit%8)
			if (b[byteIdx]>>bitPos)&1 == 0 {
				zeros = append(zeros, i)
			} else {
				ones = append(ones, i)
			}
		}
		// Reserve this node's slot before building its children, so the
		// root lands at index 0, where every walk of the tree starts.
		self := len(nodes)
		nodes = append(nodes, rawNode{})
		left := build(es, zeros, bit+1)
		right := build(es, ones, bit+1)
		nodes[self] = rawNode{left: left, right: right}
		return rawRecord{node: uint(self)}
	}

	all := make([]int, len(entries))
	for i := range entries {
		all[i] = i
	}
	build(entries, all, 0)
	return nodes
}

// recordValue resolves a rawRecord to its final on-disk integer.
func recordValue(r rawRecord, nodeCount uint) uint {
	switch {
	case r.isEmpty:
		return nodeCount
	case r.isLeaf:
		return nodeCount + 16 + r.dataBytes
	default:
		return r.node
	}
}

// writeNode24 appends one 6-byte, 24-bit-per-record node to buf.
func writeNode24(buf *bytes.Buffer, left, right uint) {
	buf.WriteByte(byte(left >> 16))
	buf.WriteByte(byte(left >> 8))
	buf.WriteByte(byte(left))
	buf.WriteByte(byte(right >> 16))
	buf.WriteByte(byte(right >> 8))
	buf.WriteByte(byte(right))
}

// fixtureDB is a fully assembled, in-memory MMDB image plus the
// data-section byte offset of each entry, keyed by the CIDR string passed
// to v4Entry/v6Entry, for tests that want to exercise LookupOffset.
type fixtureDB struct {
	bytes       []byte
	dataOffsets map[string]uint
}

// buildFixture assembles a minimal but fully valid MMDB image with one leaf
// per entry.
func buildFixture(ipVersion uint, entries []treeEntry) fixtureDB {
	var dataSection bytes.Buffer
	dataOffsets := make([]uint, len(entries))
	for i, e := range entries {
		dataOffsets[i] = uint(dataSection.Len())
		encodeValue(&dataSection, e.dataBytes)
	}

	nodes := buildTree(entries, dataOffsets)
	if len(nodes) == 0 {
		// No entries (or a single entry with prefixLen 0): still needs one
		// node so readNode(0) - used by setIPv4Start and Networks - has
		// something to read.
		nodes = []rawNode{{left: rawRecord{isEmpty: true}, right: rawRecord{isEmpty: true}}}
	}
	nodeCount := uint(len(nodes))

	var tree bytes.Buffer
	for _, n := range nodes {
		writeNode24(&tree, recordValue(n.left, nodeCount), recordValue(n.right, nodeCount))
	}

	var meta bytes.Buffer
	encodeValue(&meta, []kv{
		{"node_count", uint32(nodeCount)},
		{"record_size", uint16(24)},
		{"ip_version", uint16(ipVersion)},
		{"binary_format_major_version", uint16(2)},
		{"binary_format_minor_version", uint16(0)},
		{"build_epoch", uint64(1700000000)},
		{"database_type", "test-fixture"},
		{"languages", []any{"en"}},
		{"description", []kv{{"en", "Test fixture database"}}},
	})

	var out bytes.Buffer
	out.Write(tree.Bytes())
	out.Write(make([]byte, dataSectionSeparatorSize))
	out.Write(dataSection.Bytes())
	out.Write(metadataStartMarker)
	out.Write(meta.Bytes())

	offsetByCIDR := make(map[string]uint, len(entries))
	for i, e := range entries {
		cidr := netip.PrefixFrom(mustAddr(e.ipBytes), e.prefixLen).String()
		offsetByCIDR[cidr] = dataOffsets[i]
	}

	return fixtureDB{bytes: out.Bytes(), dataOffsets: offsetByCIDR}
}

func mustAddr(b []byte) netip.Addr {
	addr, ok := netip.AddrFromSlice(b)
	if !ok {
		panic("fixture: bad address bytes")
	}
	return addr
}
