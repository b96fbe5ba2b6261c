package aggregation

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// CacheKeyDigest hashes the cache keys of factories, in order. Each key is
// length-prefixed so that the concatenation is unambiguous.
func CacheKeyDigest(factories ...AggregatorFactory) uint64 {
	d := xxhash.New()
	var n [binary.MaxVarintLen64]byte
	for _, f := range factories {
		key := f.CacheKey()
		_, _ = d.Write(n[:binary.PutUvarint(n[:], uint64(len(key)))])
		_, _ = d.Write(key)
	}
	return d.Sum64()
}
