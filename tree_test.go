package maxminddb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchTreeReadNode24(t *testing.T) {
	var buf bytes.Buffer
	writeNode24(&buf, 1, 2)
	writeNode24(&buf, 0xABCDEF, 0x123456)

	tree := searchTree{buffer: buf.Bytes(), nodeCount: 2, recordSize: 24}

	left, right, err := tree.readNode(0)
	require.NoError(t, err)
	require.Equal(t, uint(1), left)
	require.Equal(t, uint(2), right)

	left, right, err = tree.readNode(1)
	require.NoError(t, err)
	require.Equal(t, uint(0xABCDEF), left)
	require.Equal(t, uint(0x123456), right)
}

func TestSearchTreeReadNode28(t *testing.T) {
	// Packed into a 7-byte row: the middle byte's high nibble extends left
	// (bits 24-27), its low nibble extends right (bits 24-27).
	row := []byte{0xBC, 0xDE, 0xF0, 0x01, 0x23, 0x45, 0x67}
	tree := searchTree{buffer: row, nodeCount: 1, recordSize: 28}

	left, right, err := tree.readNode(0)
	require.NoError(t, err)
	require.Equal(t, uint(0x00BCDEF0), left)
	require.Equal(t, uint(0x01234567), right)
}

func TestSearchTreeReadNode32(t *testing.T) {
	row := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00}
	tree := searchTree{buffer: row, nodeCount: 1, recordSize: 32}

	left, right, err := tree.readNode(0)
	require.NoError(t, err)
	require.Equal(t, uint(0x100), left)
	require.Equal(t, uint(0x200), right)
}

func TestSearchTreeReadNodeOutOfBounds(t *testing.T) {
	tree := searchTree{buffer: make([]byte, 3), nodeCount: 1, recordSize: 24}
	_, _, err := tree.readNode(0)
	require.Error(t, err)
}

func TestSearchTreeClassify(t *testing.T) {
	tree := searchTree{nodeCount: 10}

	kind, _ := tree.classify(5)
	require.Equal(t, recordNode, kind)

	kind, _ = tree.classify(10)
	require.Equal(t, recordEmpty, kind)

	kind, offset := tree.classify(30)
	require.Equal(t, recordData, kind)
	require.Equal(t, uint(4), offset) // 30 - 10 - 16
}

func TestSearchTreeWalk(t *testing.T) {
	// A 2-node tree: root splits on bit 0, each child is a leaf (pointing
	// past nodeCount).
	var buf bytes.Buffer
	const nodeCount = 2
	writeNode24(&buf, 1, nodeCount+16+7) // bit 0 = 0 -> node 1, bit 0 = 1 -> data at offset 7
	writeNode24(&buf, nodeCount, nodeCount+16+9)

	tree := searchTree{buffer: buf.Bytes(), nodeCount: nodeCount, recordSize: 24}

	// IP starting with bit 1 (0x80...) should land directly on the data leaf.
	node, consumed, err := tree.walk([]byte{0x80}, 0, 8, 0)
	require.NoError(t, err)
	require.Equal(t, 1, consumed)
	kind, offset := tree.classify(node)
	require.Equal(t, recordData, kind)
	require.Equal(t, uint(7), offset)

	// IP starting with bit 0 descends to node 1, then its second bit (1)
	// resolves to the other leaf.
	node, consumed, err = tree.walk([]byte{0x40}, 0, 8, 0)
	require.NoError(t, err)
	require.Equal(t, 2, consumed)
	kind, offset = tree.classify(node)
	require.Equal(t, recordData, kind)
	require.Equal(t, uint(9), offset)
}

func TestSearchTreeWalkStopsAtRequestedBit(t *testing.T) {
	var buf bytes.Buffer
	writeNode24(&buf, 1, 1)
	writeNode24(&buf, 1, 1)
	tree := searchTree{buffer: buf.Bytes(), nodeCount: 2, recordSize: 24}

	node, consumed, err := tree.walk([]byte{0x00}, 0, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, consumed)
	require.Equal(t, uint(1), node)
}
