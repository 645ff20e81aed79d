package hash

import (
	"fmt"
	"github.com/zeebo/xxh3"
)

// ContentHash returns a short stable hash of the input, used to identify the
// packaged archive in logs and telemetry.
func ContentHash(input []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(input).Bytes())
}
