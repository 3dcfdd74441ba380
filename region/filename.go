package region

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseFilename extracts (region_x, region_z) from a region file name of
// the form "<region_x>.<region_z>.region.bin".
func ParseFilename(path string) (int32, int32, error) {
	base := filepath.Base(path)
	const suffix = ".region.bin"
	if !strings.HasSuffix(base, suffix) {
		return 0, 0, fmt.Errorf("region: %q does not end in %q", base, suffix)
	}
	trimmed := strings.TrimSuffix(base, suffix)

	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return 0, 0, fmt.Errorf("region: %q missing region-coordinate separator", base)
	}
	xPart, zPart := trimmed[:idx], trimmed[idx+1:]

	x, err := strconv.ParseInt(xPart, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("region: %q: invalid region_x: %w", base, err)
	}
	z, err := strconv.ParseInt(zPart, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("region: %q: invalid region_z: %w", base, err)
	}

	return int32(x), int32(z), nil
}
