package maxminddb

import (
	"github.com/learninton/libmaxminddb/internal/decoder"
	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

// PathKey is one step of a path passed to Entry.GetValue: either a map key
// or an array index. Build one with Field or Index.
type PathKey struct {
	field   string
	index   int
	isIndex bool
}

// Field builds a PathKey that selects a map entry by key.
func Field(name string) PathKey {
	return PathKey{field: name}
}

// Index builds a PathKey that selects an array element by position.
func Index(i int) PathKey {
	return PathKey{index: i, isIndex: true}
}

// navigate walks path from the element at offset, the Go analogue of
// MMDB_aget_value/MMDB_vget_value in the reference implementation. It
// reports found=false, with no error, whenever the path descends into a
// key or index that the data simply doesn't have.
func navigate(dec *decoder.Decoder, offset uint, path []PathKey) (Element, bool, error) {
	el, err := dec.DecodeOneFollow(offset)
	if err != nil {
		return Element{}, false, err
	}

	for i, step := range path {
		containerOffset := el.Offset
		if step.isIndex {
			el, err = navigateIndex(dec, el, step.index)
		} else {
			el, err = navigateField(dec, el, step.field)
		}
		if err != nil {
			return Element{}, false, wrapPathError(err, path[:i+1], containerOffset)
		}
		if el.Kind == decoder.KindEndMarker {
			return Element{}, false, nil
		}
	}

	return el, true, nil
}

// wrapPathError attaches the path walked so far and the offset of the
// container being searched when the error occurred, so a caller debugging
// a corrupt database sees where in a deep path decoding failed.
func wrapPathError(err error, path []PathKey, offset uint) error {
	pb := mmdberrors.NewPathBuilder()
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].isIndex {
			pb.PrependSlice(path[i].index)
		} else {
			pb.PrependMap(path[i].field)
		}
	}
	return mmdberrors.WrapWithContext(err, offset, pb)
}

// missing is a sentinel Element (Kind KindEndMarker never otherwise occurs
// in decoded data) used internally to signal "path step not present"
// without a second return value threading through every helper.
var missing = Element{Kind: decoder.KindEndMarker}

func navigateIndex(dec *decoder.Decoder, el Element, index int) (Element, error) {
	if el.Kind != decoder.KindSlice {
		return missing, nil
	}
	if index < 0 || uint(index) >= el.Size { //nolint:gosec // index<0 already rejected
		return missing, nil
	}

	cursor, err := dec.Skip(el.Body, uint(index)) //nolint:gosec // index>=0 checked above
	if err != nil {
		return Element{}, err
	}
	return dec.DecodeOneFollow(cursor)
}

func navigateField(dec *decoder.Decoder, el Element, field string) (Element, error) {
	if el.Kind != decoder.KindMap {
		return missing, nil
	}

	cursor := el.Body
	for i := uint(0); i < el.Size; i++ {
		keyEl, err := dec.DecodeOneFollow(cursor)
		if err != nil {
			return Element{}, err
		}
		if keyEl.Kind != decoder.KindString {
			return Element{}, mmdberrors.NewInvalidDatabaseError(
				"the MaxMind DB file's data section contains a non-string map key",
			)
		}
		valueOffset := keyEl.OffsetToNext
		if keyEl.String == field {
			return dec.DecodeOneFollow(valueOffset)
		}
		cursor, err = dec.Skip(valueOffset, 1)
		if err != nil {
			return Element{}, err
		}
	}
	return missing, nil
}
