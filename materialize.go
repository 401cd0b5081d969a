package maxminddb

import (
	"github.com/learninton/libmaxminddb/internal/decoder"
	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

// materializeMaxDepth bounds the recursive container walk in materializeValue,
// the same bound the reference implementation uses in get_entry_data_list.
const materializeMaxDepth = 512

// ElementList is one node of the linked list Entry.Materialize produces:
// the Go analogue of MMDB_entry_data_list_s. For a map, a KindMap node is
// followed by Size key/value pairs, each key a KindString node immediately
// followed by its value's own node (which may itself be a container,
// nesting recursively); for a slice, a KindSlice node is followed by Size
// value nodes.
type ElementList struct {
	Element Element
	Next    *ElementList
}

// materialize decodes the entry at offset into a full ElementList,
// transparently following pointers the way Entry.GetValue does.
func materialize(dec *decoder.Decoder, offset uint) (*ElementList, error) {
	head, _, _, err := materializeValue(dec, offset, 0)
	if err != nil {
		return nil, err
	}
	return head, nil
}

// materializeValue decodes one logical value (which may be a container)
// starting at offset, returning the head and tail of the list segment it
// produced along with the offset immediately following the whole value.
func materializeValue(
	dec *decoder.Decoder,
	offset uint,
	depth int,
) (head, tail *ElementList, next uint, err error) {
	if depth > materializeMaxDepth {
		return nil, nil, 0, mmdberrors.NewInvalidDatabaseError(
			"exceeded maximum data structure depth; database is likely corrupt",
		)
	}

	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return nil, nil, 0, err
	}
	node := &ElementList{Element: el}

	switch el.Kind {
	case decoder.KindMap:
		cursor := el.Body
		tail = node
		for i := uint(0); i < el.Size; i++ {
			keyHead, keyTail, afterKey, kerr := materializeValue(dec, cursor, depth+1)
			if kerr != nil {
				return nil, nil, 0, kerr
			}
			tail.Next = keyHead
			tail = keyTail

			valHead, valTail, afterVal, verr := materializeValue(dec, afterKey, depth+1)
			if verr != nil {
				return nil, nil, 0, verr
			}
			tail.Next = valHead
			tail = valTail

			cursor = afterVal
		}
		if el.Offset != offset {
			// Reached through a pointer: the sibling follows the pointer itself.
			cursor = el.OffsetToNext
		}
		return node, tail, cursor, nil

	case decoder.KindSlice:
		cursor := el.Body
		tail = node
		for i := uint(0); i < el.Size; i++ {
			childHead, childTail, afterChild, cerr := materializeValue(dec, cursor, depth+1)
			if cerr != nil {
				return nil, nil, 0, cerr
			}
			tail.Next = childHead
			tail = childTail
			cursor = afterChild
		}
		if el.Offset != offset {
			// Reached through a pointer: the sibling follows the pointer itself.
			cursor = el.OffsetToNext
		}
		return node, tail, cursor, nil

	default:
		return node, node, el.OffsetToNext, nil
	}
}
