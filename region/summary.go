package region

import "log"

// Summary aggregates block-name counts across all chunks in a region
// without retaining per-section data.
type Summary struct {
	RegionX, RegionZ int32
	NonEmptySlots    int
	BlockCounts      map[string]int
}

// UniqueBlocks returns the number of distinct block names observed.
func (s *Summary) UniqueBlocks() int {
	return len(s.BlockCounts)
}

// Summarize drives a fresh Iterator over path in Lenient mode and
// aggregates block-name counts across every decoded chunk. Per-chunk
// failures are logged and skipped; they do not abort the summary.
func Summarize(path string, logger *log.Logger) (*Summary, error) {
	it, err := Open(path, Lenient, logger)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	regionX, regionZ := it.RegionCoordinates()
	summary := &Summary{
		RegionX:     regionX,
		RegionZ:     regionZ,
		BlockCounts: map[string]int{},
	}

	for {
		result, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		summary.NonEmptySlots++
		if result.Chunk == nil {
			continue
		}
		for _, sec := range result.Chunk.Sections {
			if sec == nil {
				continue
			}
			for name, count := range sec.BlockCounts {
				summary.BlockCounts[name] += count
			}
		}
	}

	return summary, nil
}
