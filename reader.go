// Package maxminddb reads MaxMind DB (MMDB) files: the binary search-tree
// plus tagged-data-section format used by GeoIP2/GeoLite2 and compatible
// databases.
//
// # Basic usage
//
//	db, err := maxminddb.Open("GeoLite2-City.mmdb", maxminddb.ModeMMap)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	ip, err := netip.ParseAddr("81.2.69.142")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := db.Lookup(ip)
//	country, _, err := result.GetValue(maxminddb.Field("country"), maxminddb.Field("iso_code"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(country.String)
//
// # Network iteration
//
//	for result := range db.Networks() {
//		city, _, _ := result.GetValue(maxminddb.Field("city"), maxminddb.Field("names"), maxminddb.Field("en"))
//		fmt.Printf("%s: %s\n", result.Network(), city.String)
//	}
//
// # Thread safety
//
// All Reader methods are safe for concurrent use once Open or FromBytes
// returns. A Reader may be shared across goroutines.
package maxminddb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"runtime"

	"github.com/learninton/libmaxminddb/internal/decoder"
	"github.com/learninton/libmaxminddb/internal/mmdberrors"
)

const dataSectionSeparatorSize = 16

var metadataStartMarker = []byte("\xAB\xCD\xEFMaxMind.com")

// metadataBlockMaxSize bounds how far from the end of the file the metadata
// marker search looks. Unlike an off-by-one in some ports of this search,
// the slice below is always clamped to the smaller of this value and the
// actual file size.
//
// This is the original C library's METADATA_BLOCK_MAX_SIZE (131072), not
// the smaller 20000 some later reimplementations use. A marker placed
// between 20,000 and 128*1024 bytes from the end of the file is found here
// and would be rejected by a stricter reader using the smaller bound.
const metadataBlockMaxSize = 128 * 1024

// OpenMode selects how Open maps the database file into memory.
type OpenMode int

const (
	// ModeMMap memory-maps the file read-only. This is the default: it
	// lets the OS share pages across Reader instances and processes and
	// avoids a full up-front copy. Falls back to ModeMemoryCache
	// automatically on a platform build with no mmap (where mmap reports
	// errors.ErrUnsupported); any other mmap failure is returned as an
	// IOError.
	ModeMMap OpenMode = iota

	// ModeMemoryCache reads the whole file into a heap-allocated buffer.
	// Use this when the file lives on a filesystem that doesn't support
	// mmap, or when the Reader must outlive the file descriptor's
	// underlying mount (e.g. a container layer that may be torn down).
	ModeMemoryCache
)

// Reader holds the data corresponding to an MMDB file. Its only public
// field is Metadata, decoded from the file's metadata block.
type Reader struct {
	buffer            []byte
	decoder           decoder.Decoder
	tree              searchTree
	Metadata          Metadata
	ipv4Start         uint
	ipv4StartBitDepth int
	hasMappedFile     bool
}

// Open opens the MMDB file at path using mode and returns a Reader. Use
// Close to release the underlying resources.
func Open(path string, mode OpenMode) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mmdberrors.NewFileOpenError(err)
	}
	defer f.Close() //nolint:errcheck // read-only fd, error carries no actionable information here

	stat, err := f.Stat()
	if err != nil {
		return nil, mmdberrors.NewFileOpenError(err)
	}

	size64 := stat.Size()
	if size64 == 0 {
		return nil, mmdberrors.NewInvalidDatabaseError("database file is empty")
	}
	size := int(size64)
	if int64(size) != size64 {
		return nil, mmdberrors.NewInvalidDatabaseError("database file is too large")
	}

	if mode == ModeMemoryCache {
		data, rerr := readFull(f, size)
		if rerr != nil {
			return nil, rerr
		}
		return FromBytes(data, ModeMemoryCache)
	}

	data, err := mmap(int(f.Fd()), size)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			data, err = readFull(f, size)
			if err != nil {
				return nil, err
			}
			return FromBytes(data, ModeMemoryCache)
		}
		return nil, mmdberrors.NewIOError(err)
	}

	reader, err := FromBytes(data, ModeMMap)
	if err != nil {
		_ = munmap(data)
		return nil, err
	}
	reader.hasMappedFile = true
	runtime.SetFinalizer(reader, (*Reader).Close)
	return reader, nil
}

func readFull(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, mmdberrors.NewIOError(err)
	}
	return data, nil
}

// Close releases the resources held by the Reader. Subsequent calls to
// Lookup, GetValue, or Materialize against values produced by this Reader
// are not safe.
func (r *Reader) Close() error {
	var err error
	if r.hasMappedFile {
		runtime.SetFinalizer(r, nil)
		r.hasMappedFile = false
		if merr := munmap(r.buffer); merr != nil {
			err = mmdberrors.NewIOError(merr)
		}
	}
	r.buffer = nil
	return err
}

// FromBytes builds a Reader directly over a caller-owned byte slice, with
// MEMORY_CACHE semantics: buf must not be modified or reclaimed while the
// Reader (or anything derived from it) is in use. mode is accepted for
// symmetry with Open but does not change behavior, since buf is already
// resident memory either way.
func FromBytes(buf []byte, _ OpenMode) (*Reader, error) {
	metadataStart := bytes.LastIndex(buf, metadataStartMarker)
	if metadataStart == -1 {
		return nil, mmdberrors.NewInvalidDatabaseError(
			"could not find a MaxMind DB metadata marker in this file",
		)
	}
	metadataStart += len(metadataStartMarker)

	tailWindow := metadataBlockMaxSize
	if tailWindow > len(buf) {
		tailWindow = len(buf)
	}
	if metadataStart < len(buf)-tailWindow {
		return nil, mmdberrors.NewInvalidDatabaseError(
			"the MaxMind DB metadata marker was found too far from the end of the file",
		)
	}

	metaDec := decoder.New(buf[metadataStart:])
	metadata, err := parseMetadata(&metaDec)
	if err != nil {
		return nil, err
	}
	if metadata.RecordSize != 24 && metadata.RecordSize != 28 && metadata.RecordSize != 32 {
		return nil, mmdberrors.NewUnknownFormatError(
			"unknown record size of %d bits", metadata.RecordSize,
		)
	}
	if metadata.BinaryFormatMajorVersion != 2 {
		return nil, mmdberrors.NewUnknownFormatError(
			"unsupported binary format version %d.%d",
			metadata.BinaryFormatMajorVersion, metadata.BinaryFormatMinorVersion,
		)
	}

	searchTreeSize := metadata.NodeCount * metadata.FullRecordByteSize()
	dataSectionStart := searchTreeSize + dataSectionSeparatorSize
	dataSectionEnd := uint(metadataStart - len(metadataStartMarker)) //nolint:gosec // bounded by metadataStart search above
	if dataSectionStart > dataSectionEnd {
		return nil, mmdberrors.NewInvalidDatabaseError("the MaxMind DB file's metadata is inconsistent with its size")
	}

	reader := &Reader{
		buffer:   buf,
		decoder:  decoder.New(buf[dataSectionStart:dataSectionEnd]),
		Metadata: metadata,
		tree: searchTree{
			buffer:     buf[:searchTreeSize],
			nodeCount:  metadata.NodeCount,
			recordSize: metadata.RecordSize,
		},
	}
	reader.setIPv4Start()

	return reader, nil
}

// setIPv4Start locates the node in an IPv4/IPv6 dual tree at which IPv4
// addresses (mapped as ::/96-prefixed) actually begin, so IPv4 lookups
// don't have to walk the first 96 always-IPv4-mapped bits one at a time.
func (r *Reader) setIPv4Start() {
	if r.Metadata.IPVersion != 6 {
		r.ipv4StartBitDepth = 96
		return
	}

	node := uint(0)
	depth := 0
	for ; depth < 96 && node < r.Metadata.NodeCount; depth++ {
		left, _, err := r.tree.readNode(node)
		if err != nil {
			break
		}
		node = left
	}
	r.ipv4Start = node
	r.ipv4StartBitDepth = depth
}

// Lookup finds the record associated with ip and returns a Result. Use
// Result.GetValue, Result.Materialize, or check Result.Found to inspect it.
func (r *Reader) Lookup(ip netip.Addr) Result {
	if r.buffer == nil {
		return Result{err: errors.New("cannot call Lookup on a closed Reader")}
	}
	if r.Metadata.IPVersion == 4 && ip.Is6() && !ip.Is4In6() {
		return Result{
			ip: ip,
			err: fmt.Errorf(
				"error looking up %q: this is an IPv4-only database but the address is IPv6", ip,
			),
		}
	}

	offset, prefixLen, err := r.lookupPointer(ip)
	if err != nil {
		return Result{ip: ip, prefixLen: prefixLen, err: err}
	}
	if offset == notFound {
		return Result{
			Entry:     Entry{reader: r, offset: notFound},
			ip:        ip,
			prefixLen: prefixLen,
		}
	}
	return Result{
		Entry:     Entry{reader: r, offset: offset},
		ip:        ip,
		prefixLen: prefixLen,
	}
}

// LookupOffset returns an Entry rooted directly at a data-section offset
// previously obtained from Result.RecordOffset. This is an advanced escape
// hatch for callers who cache offsets instead of full lookups.
func (r *Reader) LookupOffset(offset uint) Entry {
	return Entry{reader: r, offset: offset}
}

// lookupPointer walks the search tree for ip and returns the data-section
// offset of its record (notFound and no error if the address isn't present)
// along with the number of bits consumed.
func (r *Reader) lookupPointer(ip netip.Addr) (offset uint, prefixLen int, err error) {
	startNode := uint(0)
	startBit := 0
	if ip.Is4() || ip.Is4In6() {
		startNode = r.ipv4Start
		startBit = r.ipv4StartBitDepth
	}

	ip16 := ip.As16()
	node, delta, err := r.tree.walk(ip16[:], startBit, 128, startNode)
	if err != nil {
		return 0, 0, err
	}
	consumed := startBit + delta

	kind, value := r.tree.classify(node)
	switch kind {
	case recordEmpty:
		return notFound, consumed, nil
	case recordData:
		return value, consumed, nil
	default:
		return 0, consumed, mmdberrors.NewCorruptDatabaseError(
			"the MaxMind DB search tree is corrupt: tree walk stopped on an internal node",
		)
	}
}
