// Command hytaleregion walks a file or directory, drives the core decoder
// over each region file it finds, and writes the results as JSON. None of
// the decoding logic lives here — it is a consumer of the region package.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-hytale/regionfile/chunk"
	"github.com/go-hytale/regionfile/region"
	"github.com/go-hytale/regionfile/section"
)

type options struct {
	output      string
	stdout      bool
	compact     bool
	quiet       bool
	summaryOnly bool
	noBlocks    bool
}

func main() {
	var opts options

	flag.StringVar(&opts.output, "o", "", "output file path (shorthand for --output)")
	flag.StringVar(&opts.output, "output", "", "output file path")
	flag.BoolVar(&opts.stdout, "stdout", false, "write output to stdout instead of a file")
	flag.BoolVar(&opts.compact, "compact", false, "emit compact JSON instead of indented")
	flag.BoolVar(&opts.quiet, "q", false, "suppress progress logging (shorthand for --quiet)")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress progress logging")
	flag.BoolVar(&opts.summaryOnly, "s", false, "emit only the region summary (shorthand for --summary-only)")
	flag.BoolVar(&opts.summaryOnly, "summary-only", false, "emit only the region summary")
	flag.BoolVar(&opts.noBlocks, "no-blocks", false, "omit per-voxel block records from the output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hytaleregion [options] <file-or-directory>")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if opts.quiet {
		logger.SetOutput(io.Discard)
	}

	if err := run(flag.Arg(0), opts, logger); err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}

func run(path string, opts options, logger *log.Logger) error {
	files, err := collectRegionFiles(path)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(opts, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	enc := json.NewEncoder(w)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}

	for _, f := range files {
		logger.Printf("processing %s", f)
		if err := processFile(f, opts, enc, logger); err != nil {
			logger.Printf("failed %s: %v", f, err)
		}
	}
	return nil
}

func openOutput(opts options, logger *log.Logger) (*os.File, func(), error) {
	if opts.stdout || opts.output == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func collectRegionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var out []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(p, ".region.bin") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	return out, nil
}

// voxelRecord is the `{name, components}` record written under each
// "x,y,z" output key.
type voxelRecord struct {
	Name       string `json:"name"`
	Components int    `json:"components,omitempty"`
}

func processFile(path string, opts options, enc *json.Encoder, logger *log.Logger) error {
	if opts.summaryOnly {
		summary, err := region.Summarize(path, logger)
		if err != nil {
			return err
		}
		return enc.Encode(summary)
	}

	it, err := region.Open(path, region.Lenient, logger)
	if err != nil {
		return err
	}
	defer it.Close()

	out := map[string]voxelRecord{}
	for {
		result, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if result.Failed != nil {
			logger.Printf("slot %d failed: %v", result.Failed.SlotIndex, result.Failed.Err)
			continue
		}
		if !opts.noBlocks {
			collectVoxels(result.Chunk, out)
		}
	}

	return enc.Encode(out)
}

func emitUniformSection(pc *chunk.ParsedChunk, sectionIndex int, name string, out map[string]voxelRecord) {
	for local := 0; local < section.VoxelsPerSection; local++ {
		x, y, z := section.InverseLinearIndex(local)
		wx, wy, wz := pc.WorldPosition(sectionIndex, x, y, z)
		key := fmt.Sprintf("%d,%d,%d", wx, wy, wz)
		out[key] = voxelRecord{Name: name}
	}
}

func collectVoxels(pc *chunk.ParsedChunk, out map[string]voxelRecord) {
	for s, sec := range pc.Sections {
		if sec == nil {
			continue
		}
		if sec.PaletteType == section.PaletteEmpty {
			if len(sec.Palette) == 1 && sec.Palette[0].Name != "" {
				emitUniformSection(pc, s, sec.Palette[0].Name, out)
			}
			continue
		}
		for local, idx := range sec.Indices {
			if int(idx) >= len(sec.Palette) {
				continue
			}
			name := sec.Palette[idx].Name
			if name == "" {
				continue
			}
			x, y, z := section.InverseLinearIndex(local)
			wx, wy, wz := pc.WorldPosition(s, x, y, z)
			key := fmt.Sprintf("%d,%d,%d", wx, wy, wz)
			out[key] = voxelRecord{Name: name}
		}
	}
	for _, bc := range pc.BlockComponents {
		x, y, z := section.InverseLinearIndex(int(bc.PositionInSection))
		wx, wy, wz := pc.WorldPosition(int(bc.SectionIndex), x, y, z)
		key := fmt.Sprintf("%d,%d,%d", wx, wy, wz)
		rec := out[key]
		rec.Components++
		out[key] = rec
	}
}
