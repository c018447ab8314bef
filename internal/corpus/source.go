// Package corpus streams training documents from their on-disk formats. A
// Source yields one document string at a time so the scan never holds more
// than a single document in memory; the corpus may be far larger than RAM.
//
// Malformed records inside a file are logged and skipped rather than
// aborting the scan; an unknown format name fails before any byte is read.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Corpus format names accepted by Open.
const (
	FormatRaw     = "raw"
	FormatCustom  = "custom"
	FormatThePile = "the_pile"
)

// maxLineBytes bounds a single document record within a file.
const maxLineBytes = 128 * 1024 * 1024

// Source is a lazy, finite, single-pass stream of document strings. Next
// returns io.EOF when the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// CheckFormat validates a corpus format name. Callers run this at startup
// so an unknown format fails before any document is read.
func CheckFormat(format string) error {
	switch format {
	case FormatRaw, FormatCustom, FormatThePile:
		return nil
	default:
		return apperrors.Newf(apperrors.ErrUnknownFormat, "%q", format)
	}
}

// Open returns a Source for the given file. textKey names the JSON field
// holding the document text in the custom format; the_pile always uses
// "text". An unknown format is a configuration error surfaced before any
// document is read.
func Open(path, format, textKey string) (Source, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}

	var reader io.Reader = f
	var zr *zstd.Decoder
	if format == FormatThePile {
		zr, err = zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		reader = zr
	}

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)

	key := textKey
	if format == FormatThePile || key == "" {
		key = "text"
	}

	return &lineSource{
		path:    path,
		format:  format,
		textKey: key,
		file:    f,
		zstd:    zr,
		scanner: sc,
		logger:  slog.Default().With("component", "corpus", "file", path),
	}, nil
}

// lineSource reads one record per line: plain text for raw, a JSON object
// for custom and the_pile.
type lineSource struct {
	path    string
	format  string
	textKey string
	file    *os.File
	zstd    *zstd.Decoder
	scanner *bufio.Scanner
	logger  *slog.Logger
	lineNo  int
	skipped int
}

func (s *lineSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", fmt.Errorf("reading corpus file %s: %w", s.path, err)
			}
			return "", io.EOF
		}
		s.lineNo++
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if s.format == FormatRaw {
			return string(line), nil
		}
		var record map[string]json.RawMessage
		if err := json.Unmarshal(line, &record); err != nil {
			s.skip("malformed json record", err)
			continue
		}
		var text string
		if err := json.Unmarshal(record[s.textKey], &text); err != nil {
			s.skip(fmt.Sprintf("record without string %q field", s.textKey), err)
			continue
		}
		return text, nil
	}
}

// skip logs and counts a malformed record. Individual bad documents never
// abort the scan.
func (s *lineSource) skip(reason string, err error) {
	s.skipped++
	s.logger.Warn("skipping document", "line", s.lineNo, "reason", reason, "error", err)
}

// Skipped returns the number of malformed records dropped so far.
func (s *lineSource) Skipped() int {
	return s.skipped
}

func (s *lineSource) Close() error {
	if s.zstd != nil {
		s.zstd.Close()
	}
	return s.file.Close()
}

// Expand resolves a corpus path to the list of files to scan: the path
// itself if it is a file, or every regular file under it (recursively,
// sorted) if it is a directory.
func Expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stating corpus path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus directory %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
