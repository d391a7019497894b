package parser

import (
	"compress/bzip2"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-r6-metrics/internal/model"
)

// Extensions lists the match document suffixes ParseFile understands.
var Extensions = []string{".json", ".json.gz", ".json.zst", ".json.bz2"}

// IsMatchFile reports whether name carries one of the supported suffixes.
func IsMatchFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ParseFile reads the match document at path and returns a RawMatch.
// SourceHash is the sha256 of the file bytes as stored, before decompression.
func ParseFile(path string) (*model.RawMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open match: %w", err)
	}
	defer f.Close()

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash match: %w", err)
	}
	sourceHash := fmt.Sprintf("%x", h.Sum(nil))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek match: %w", err)
	}

	src, closeSrc, err := decompress(path, f)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	raw, err := Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	raw.SourceHash = sourceHash
	return raw, nil
}

// decompress picks a reader by file suffix.
func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".bz2"):
		return bzip2.NewReader(r), func() {}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return r, func() {}, nil
}

// Decode reads one r6-dissect JSON document.
func Decode(r io.Reader) (*model.RawMatch, error) {
	var raw model.RawMatch
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	return &raw, nil
}
