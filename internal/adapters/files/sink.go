package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// TimestampLayout formats header and footer times.
const TimestampLayout = "2006-01-02 15:04:05.000000"

const (
	headerFormat = "COLLECTION STARTED AT: %s\n\n"
	footerFormat = "\n\nTWITTER COLLECTION ENDED: %s"
)

// Sink implements ports.Sink with two append-only files: newline-delimited
// raw records (<base>.json) and a readable transcript (<base>.txt).
type Sink struct {
	dir  string
	base string
	now  func() time.Time

	raw  *os.File
	text *os.File
}

// New creates a Sink writing under dir.
func New(dir, basename string) *Sink {
	return &Sink{dir: dir, base: basename, now: time.Now}
}

// RawPath is the path of the raw record log.
func (s *Sink) RawPath() string { return filepath.Join(s.dir, s.base+".json") }

// TextPath is the path of the readable transcript.
func (s *Sink) TextPath() string { return filepath.Join(s.dir, s.base+".txt") }

// Initialize creates the output directory and opens both artifacts. A header
// is written only to files that did not exist yet.
func (s *Sink) Initialize(ctx context.Context) error {
	if s.raw != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	stamp := s.now().Format(TimestampLayout)

	raw, err := openArtifact(s.RawPath(), stamp)
	if err != nil {
		return err
	}
	text, err := openArtifact(s.TextPath(), stamp)
	if err != nil {
		_ = raw.Close()
		return err
	}

	s.raw, s.text = raw, text
	return nil
}

func openArtifact(path, stamp string) (*os.File, error) {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if created {
		if _, err := fmt.Fprintf(f, headerFormat, stamp); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header %s: %w", path, err)
		}
	}
	return f, nil
}

// Write appends the record to both artifacts. The second write is attempted
// even if the first fails.
func (s *Sink) Write(ctx context.Context, e domain.Entry) error {
	if s.raw == nil {
		return errors.New("files sink not initialized")
	}

	var errs []error
	line := bytes.TrimRight(e.Record.Raw, "\r\n")
	if _, err := fmt.Fprintf(s.raw, "%s\n", line); err != nil {
		errs = append(errs, fmt.Errorf("write %s: %w", s.RawPath(), err))
	}
	if _, err := fmt.Fprintf(s.text, "user: %s\ncontent:\n%s\n\n", e.Author, e.Content); err != nil {
		errs = append(errs, fmt.Errorf("write %s: %w", s.TextPath(), err))
	}
	return errors.Join(errs...)
}

// Finalize appends the end footer to both artifacts and closes them.
// Finalizing a sink that is not open does nothing.
func (s *Sink) Finalize(ctx context.Context) error {
	if s.raw == nil {
		return nil
	}

	stamp := s.now().Format(TimestampLayout)
	var errs []error
	for _, f := range []*os.File{s.raw, s.text} {
		if _, err := fmt.Fprintf(f, footerFormat, stamp); err != nil {
			errs = append(errs, fmt.Errorf("write footer %s: %w", f.Name(), err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", f.Name(), err))
		}
	}
	s.raw, s.text = nil, nil
	return errors.Join(errs...)
}
