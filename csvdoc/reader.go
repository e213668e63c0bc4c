// Package csvdoc reads delimiter-separated text files into sheets.
package csvdoc

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/tsawler/tabulary/run"
	"github.com/tsawler/tabulary/sheet"
)

// Config controls how delimited text is read.
type Config struct {
	// Delimiter is the field separator. Zero means sniff it from the
	// first line, choosing among comma, semicolon, tab and pipe.
	// Default: sniff.
	Delimiter rune

	// Comment, when non-zero, skips lines starting with this rune.
	// Default: none.
	Comment rune

	// Encoding names the source character encoding ("latin1",
	// "windows-1252", ...). Empty means UTF-8, with automatic detection
	// when the content is not valid UTF-8. Default: detect.
	Encoding string

	// LazyQuotes accepts stray quotes inside fields, the way spreadsheet
	// exports often produce them. Default: true.
	LazyQuotes bool
}

// DefaultConfig returns the default reading configuration.
func DefaultConfig() Config {
	return Config{LazyQuotes: true}
}

// Open reads the file at path into a single sheet named after the file.
func Open(path string, cfg Config) (sheet.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return sheet.Sheet{}, run.Input(run.StageRead, fmt.Errorf("opening file: %w", err))
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(f, name, cfg)
}

// Read reads delimited text from r into a single sheet with the given name.
func Read(r io.Reader, name string, cfg Config) (sheet.Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return sheet.Sheet{}, run.Input(run.StageRead, fmt.Errorf("reading input: %w", err))
	}

	data, err = decode(data, cfg.Encoding)
	if err != nil {
		return sheet.Sheet{}, err
	}

	delim := cfg.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data, cfg.Comment)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.Comment = cfg.Comment
	cr.LazyQuotes = cfg.LazyQuotes
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return sheet.Sheet{}, run.Input(run.StageRead, fmt.Errorf("parsing %s: %w", name, err))
	}

	return sheet.New(name, rows).TrimTrailing(), nil
}

// decode transcodes data to UTF-8. An explicit encoding label wins; without
// one, valid UTF-8 passes through and anything else goes through charset
// detection. Line endings normalize to \n and a leading BOM is dropped.
func decode(data []byte, label string) ([]byte, error) {
	var err error
	switch {
	case label != "":
		enc, _ := charset.Lookup(label)
		if enc == nil {
			return nil, run.Configurationf(run.StageRead, "unknown encoding %q", label)
		}
		data, err = io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err != nil {
			return nil, run.Input(run.StageRead, fmt.Errorf("transcoding from %s: %w", label, err))
		}

	case utf8.Valid(data):
		// Already UTF-8.

	default:
		enc, detected, _ := charset.DetermineEncoding(data, "text/csv")
		data, err = io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err != nil {
			return nil, run.Input(run.StageRead, fmt.Errorf("transcoding from %s: %w", detected, err))
		}
	}

	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return data, nil
}

// delimiters in sniffing precedence order.
var delimiters = []byte{',', ';', '\t', '|'}

// sniffDelimiter counts candidate delimiters on the first non-comment
// line, outside quoted sections, and picks the most frequent. Ties keep
// the earlier candidate; a line with none of them reads as single-column
// comma CSV.
func sniffDelimiter(data []byte, comment rune) rune {
	line := firstDataLine(data, comment)

	counts := make(map[byte]int, len(delimiters))
	inQuotes := false
	for _, b := range line {
		if b == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		switch b {
		case ',', ';', '\t', '|':
			counts[b]++
		}
	}

	best := delimiters[0]
	bestCount := counts[best]
	for _, d := range delimiters[1:] {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return rune(best)
}

// firstDataLine returns the first line that is not blank and not a comment.
func firstDataLine(data []byte, comment rune) []byte {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if comment != 0 && bytes.HasPrefix(trimmed, []byte(string(comment))) {
			continue
		}
		return line
	}
	return nil
}
