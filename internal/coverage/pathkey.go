package coverage

import (
	"errors"
	"fmt"
	"strings"
)

// MinPathSegments is the number of '/'-separated segments a results path must
// have for DeriveKey: the key is built from segments 5 and 6 (0-based).
const MinPathSegments = 7

// ErrShortPath is returned by DeriveKey for paths with too few segments.
var ErrShortPath = errors.New("path has too few segments for a crawl key")

// DeriveKey builds the crawl join key "<seg5>/<seg6>" from a results path such
// as /data/crawls/run/results/<site>/<visit>/coverage/coverage.bv.
// A leading '/' counts as an empty first segment.
func DeriveKey(path string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) < MinPathSegments {
		return "", fmt.Errorf("%w: %q has %d, need %d", ErrShortPath, path, len(parts), MinPathSegments)
	}
	return parts[5] + "/" + parts[6], nil
}
