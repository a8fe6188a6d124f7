package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/clipsmith/internal/media"
)

// Batch is one orchestrator invocation: a source, where results go, the
// ordered segments to extract, and an optional compression profile applied
// to every segment.
type Batch struct {
	Source      string                    `yaml:"source"`
	OutputDir   string                    `yaml:"output_dir,omitempty"`
	Segments    []media.SegmentRequest    `yaml:"segments"`
	Compression *media.CompressionProfile `yaml:"compression,omitempty"`
}

var (
	ErrNoSource   = errors.New("batch has no source")
	ErrNoSegments = errors.New("batch has no segments")
)

// Validate checks the batch as a whole. Individual segment ranges are not
// checked here; a bad segment fails on its own without sinking the batch.
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.Source) == "" {
		return ErrNoSource
	}
	if len(b.Segments) == 0 {
		return ErrNoSegments
	}
	if b.Compression != nil {
		if err := b.Compression.Validate(); err != nil {
			return fmt.Errorf("compression: %w", err)
		}
	}
	return nil
}

// LoadBatchFile reads a YAML batch description. Unknown keys are rejected.
// Relative source and intro paths are resolved against the file's
// directory, so a batch file can travel with its media.
//
//	source: talk.mp4
//	output_dir: out
//	compression: {quality: 23, preset: medium, codec: libx264}
//	segments:
//	  - {start_time: 0, end_time: 30, output_name: opening, intro_path: intro.mp4}
//	  - {start_time: 95.5, end_time: 120, output_name: q-and-a}
func LoadBatchFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Batch
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	b.Source = resolveRel(base, b.Source)
	for i := range b.Segments {
		b.Segments[i].IntroPath = resolveRel(base, b.Segments[i].IntroPath)
	}
	if b.OutputDir != "" {
		b.OutputDir = resolveRel(base, b.OutputDir)
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &b, nil
}

func resolveRel(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
