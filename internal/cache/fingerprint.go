package cache

import (
	"fmt"
	"strconv"
)

const keyPrefix = "bundle_analysis_"

// Fingerprint derives the cache key for a bundle from its identity fields:
// a 32-bit multiply-by-31 polynomial hash over "{path}|{healthScore}|{totalPods}",
// rendered as hex. Keys must stay stable across releases because cached
// analyses outlive process restarts.
func Fingerprint(path string, healthScore, totalPods int) string {
	seed := fmt.Sprintf("%s|%d|%d", path, healthScore, totalPods)

	var h uint32
	for i := 0; i < len(seed); i++ {
		h = h*31 + uint32(seed[i])
	}

	return keyPrefix + strconv.FormatUint(uint64(h), 16)
}
