package maxminddb

import (
	"math"
	"net/netip"
)

// notFound marks a Result that resolved to no record: offset 0 is a
// legitimate data-section location (a database's first encoded value can
// live there), so "not found" can't be signaled with the zero value.
const notFound uint = math.MaxUint

var zeroIP = netip.MustParseAddr("::")

// Entry is a cursor into a Reader's data section: the Go analogue of the
// reference implementation's MMDB_entry_s.
type Entry struct {
	reader *Reader
	offset uint
}

// GetValue navigates path from e (an empty path means "this entry itself")
// and returns the element it names. found is false, with a nil error, when
// the path descends through a map or array that doesn't have that key or
// index - the database is not corrupt, the value is simply absent.
func (e Entry) GetValue(path ...PathKey) (Element, bool, error) {
	if e.reader == nil || e.offset == notFound {
		return Element{}, false, nil
	}
	return navigate(&e.reader.decoder, e.offset, path)
}

// Materialize fully decodes e into a linked list of Elements, the Go
// analogue of get_entry_data_list in the reference implementation. Use
// Dump to render the result, or walk it directly.
func (e Entry) Materialize() (*ElementList, error) {
	if e.reader == nil || e.offset == notFound {
		return nil, nil
	}
	return materialize(&e.reader.decoder, e.offset)
}

// Result is the outcome of Reader.Lookup: an Entry (valid only if Found
// reports true) plus the address it was looked up for and the prefix
// length of the network that address resolved within.
type Result struct {
	Entry
	ip        netip.Addr
	err       error
	prefixLen int
}

// Found reports whether the lookup found a record for the address. A
// Result can be !Found with a nil Err: the address is simply not covered
// by any network in the database.
func (r Result) Found() bool {
	return r.err == nil && r.offset != notFound
}

// Err returns any error encountered while looking up or decoding the
// record. Most callers should check this before Found.
func (r Result) Err() error {
	return r.err
}

// Network returns the network (address and prefix length) that r.ip
// resolved within. Valid only when Found reports true and r was produced
// by Lookup or Networks.
func (r Result) Network() netip.Prefix {
	ip := r.ip
	prefixLen := r.prefixLen

	if ip.Is4() {
		// ipv4Start may land on a node already shallower than bit depth
		// 96 (an IPv4 subtree that is only one or a few nodes deep), so
		// the raw prefixLen can come in under 96. Such a network is
		// reported as an IPv6 prefix of ::; otherwise the prefix is
		// reported in 32-bit IPv4 terms.
		if prefixLen < 96 {
			return netip.PrefixFrom(zeroIP, prefixLen)
		}
		prefixLen -= 96
	}

	prefix, _ := ip.Prefix(prefixLen)
	return prefix
}

// RecordOffset returns the data-section offset of this result's record,
// suitable for caching and later passing to Reader.LookupOffset.
func (r Result) RecordOffset() uint {
	return r.offset
}
