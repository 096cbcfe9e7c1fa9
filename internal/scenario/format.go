// Package scenario feeds the resolver engine the way a host would: from
// recorded JSON-lines files or from a seeded synthetic adversary model.
package scenario

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/banshee-data/facing.report/internal/resolver"
)

// Kind tags a scenario record.
type Kind string

const (
	KindFrame      Kind = "frame"
	KindHit        Kind = "hit"
	KindMiss       Kind = "miss"
	KindRoundReset Kind = "round_reset"
)

// Record is one line of a scenario file.
type Record struct {
	Kind   Kind              `json:"kind"`
	Frame  *resolver.Frame   `json:"frame,omitempty"`
	Entity resolver.EntityID `json:"entity,omitempty"`
	// Truth holds the hidden facing yaw per entity when the source knows it.
	Truth map[resolver.EntityID]float64 `json:"truth,omitempty"`
}

// Validate checks that the record carries what its kind needs.
func (r Record) Validate() error {
	switch r.Kind {
	case KindFrame:
		if r.Frame == nil {
			return errors.New("frame record without frame")
		}
	case KindHit, KindMiss, KindRoundReset:
	default:
		return fmt.Errorf("unknown record kind %q", r.Kind)
	}
	return nil
}

// Source yields records until io.EOF.
type Source interface {
	Next() (Record, error)
}

// maxLineBytes bounds a single scenario line.
const maxLineBytes = 4 << 20

// Reader decodes a JSON-lines scenario. Blank lines and lines starting with
// '#' are skipped.
type Reader struct {
	scan *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Reader{scan: scan}
}

// Next returns the next record, or io.EOF.
func (rd *Reader) Next() (Record, error) {
	for rd.scan.Scan() {
		rd.line++
		text := strings.TrimSpace(rd.scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return Record{}, fmt.Errorf("line %d: %w", rd.line, err)
		}
		if err := rec.Validate(); err != nil {
			return Record{}, fmt.Errorf("line %d: %w", rd.line, err)
		}
		return rec, nil
	}
	if err := rd.scan.Err(); err != nil {
		return Record{}, fmt.Errorf("line %d: %w", rd.line+1, err)
	}
	return Record{}, io.EOF
}

// Writer encodes records as JSON lines.
type Writer struct {
	enc *json.Encoder
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return w.enc.Encode(rec)
}

// Slice is an in-memory Source.
type Slice struct {
	records []Record
	pos     int
}

// NewSlice returns a Source over records.
func NewSlice(records []Record) *Slice {
	return &Slice{records: records}
}

// Next returns the next record, or io.EOF.
func (s *Slice) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// ReadFile loads a whole scenario file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	rd := NewReader(f)
	var out []Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, rec)
	}
}

// WriteFile stores records as a scenario file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}
	bw := bufio.NewWriter(f)
	w := NewWriter(bw)
	for i, rec := range records {
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
