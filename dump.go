package maxminddb

import (
	"fmt"
	"io"

	"github.com/learninton/libmaxminddb/internal/decoder"
)

// Dump renders list to w in an indented, human-readable form, the Go
// analogue of MMDB_dump. It is meant for debugging and ad hoc inspection,
// not as a stable serialization format.
func Dump(w io.Writer, list *ElementList) error {
	cursor := list
	return dumpValue(w, &cursor, 0)
}

func dumpValue(w io.Writer, cursor **ElementList, indent int) error {
	node := *cursor
	if node == nil {
		return nil
	}
	*cursor = node.Next
	el := node.Element

	switch el.Kind {
	case decoder.KindMap:
		if _, err := fmt.Fprint(w, "{\n"); err != nil {
			return err
		}
		for i := uint(0); i < el.Size; i++ {
			writeIndent(w, indent+1)
			keyNode := *cursor
			if keyNode == nil {
				return nil
			}
			*cursor = keyNode.Next
			if _, err := fmt.Fprintf(w, "%q: ", keyNode.Element.String); err != nil {
				return err
			}
			if err := dumpValue(w, cursor, indent+1); err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, "\n"); err != nil {
				return err
			}
		}
		writeIndent(w, indent)
		_, err := fmt.Fprint(w, "}")
		return err

	case decoder.KindSlice:
		if _, err := fmt.Fprint(w, "[\n"); err != nil {
			return err
		}
		for i := uint(0); i < el.Size; i++ {
			writeIndent(w, indent+1)
			if err := dumpValue(w, cursor, indent+1); err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, "\n"); err != nil {
				return err
			}
		}
		writeIndent(w, indent)
		_, err := fmt.Fprint(w, "]")
		return err

	default:
		return dumpScalar(w, el)
	}
}

func dumpScalar(w io.Writer, el Element) error {
	var err error
	switch el.Kind {
	case decoder.KindString:
		_, err = fmt.Fprintf(w, "%q", el.String)
	case decoder.KindBytes:
		_, err = fmt.Fprintf(w, "%x", el.Bytes)
	case decoder.KindUint16:
		_, err = fmt.Fprintf(w, "%d", el.Uint16)
	case decoder.KindUint32:
		_, err = fmt.Fprintf(w, "%d", el.Uint32)
	case decoder.KindUint64:
		_, err = fmt.Fprintf(w, "%d", el.Uint64)
	case decoder.KindUint128:
		_, err = fmt.Fprintf(w, "0x%016x%016x", el.Uint128Hi, el.Uint128Lo)
	case decoder.KindInt32:
		_, err = fmt.Fprintf(w, "%d", el.Int32)
	case decoder.KindFloat32:
		_, err = fmt.Fprintf(w, "%g", el.Float32)
	case decoder.KindFloat64:
		_, err = fmt.Fprintf(w, "%g", el.Float64)
	case decoder.KindBool:
		_, err = fmt.Fprintf(w, "%t", el.Bool)
	default:
		_, err = fmt.Fprintf(w, "<%v>", el.Kind)
	}
	return err
}

func writeIndent(w io.Writer, indent int) {
	for i := 0; i < indent; i++ {
		_, _ = fmt.Fprint(w, "  ")
	}
}
