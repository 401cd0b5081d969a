package maxminddb

import (
	"iter"
	"net/netip"
)

// Networks returns an iterator over every network present in the
// database. Each Result carries the resolved netip.Prefix (via
// Result.Network) and an Entry for reading its data. Iteration order
// follows the search tree and is not sorted by address.
func (r *Reader) Networks() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		if r.buffer == nil {
			return
		}

		depth := r.Metadata.Depth()
		size := depth / 8

		type frame struct {
			node uint
			ip   []byte
			bit  int
		}
		queue := []frame{{node: 0, ip: make([]byte, size)}}

		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]

			for branch := uint(0); branch < 2; branch++ {
				left, right, err := r.tree.readNode(f.node)
				if err != nil {
					yield(Result{err: err})
					return
				}
				child := left
				if branch == 1 {
					child = right
				}

				ip := make([]byte, len(f.ip))
				copy(ip, f.ip)
				if branch == 1 {
					ip[f.bit>>3] |= 1 << (7 - uint(f.bit%8)) //nolint:gosec // f.bit%8 is always in [0,7]
				}

				switch kind, value := r.tree.classify(child); kind {
				case recordNode:
					queue = append(queue, frame{node: child, ip: ip, bit: f.bit + 1})
				case recordData:
					if !yield(r.networkResult(ip, f.bit+1, value)) {
						return
					}
				case recordEmpty:
					// Nothing covers this branch; don't descend.
				}
			}
		}
	}
}

// networkResult builds the Result reported for a record found at prefixLen
// bits into ip (in the tree's own, physical bit-numbering). It normalizes
// prefixLen to the same "virtual 128-bit space" convention Lookup uses, so
// Result.Network applies one rule regardless of which method produced the
// Result: an IPv4 address embedded in a dual-stack tree's ::ffff:0:0/96
// range is unmapped to its native 4-byte form (its bit count is already
// virtual, since the walk passed through the real ::ffff:/96 prefix
// nodes); a record from a v4-only database gets the same +96 offset
// Reader.setIPv4Start always assumes for IPv4 addresses.
func (r *Reader) networkResult(ip []byte, prefixLen int, dataOffset uint) Result {
	addr, _ := netip.AddrFromSlice(ip)
	switch {
	case addr.Is4In6():
		addr = addr.Unmap()
	case addr.Is4():
		prefixLen += 96
	}
	return Result{
		Entry:     Entry{reader: r, offset: dataOffset},
		ip:        addr,
		prefixLen: prefixLen,
	}
}
