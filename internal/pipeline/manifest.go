package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slowdive42/news2alpha/internal/config"
	"github.com/slowdive42/news2alpha/internal/tabular"
)

// Run and stage status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Counts records how many rows each stage produced.
type Counts struct {
	Articles        int `yaml:"articles"`
	Enriched        int `yaml:"enriched"`
	Bars            int `yaml:"bars"`
	Cleaned         int `yaml:"cleaned"`
	Features        int `yaml:"features"`
	AlignedRows     int `yaml:"aligned_rows"`
	MatchedDays     int `yaml:"matched_days"`
	DroppedNewsDays int `yaml:"dropped_news_days"`
	Stored          int `yaml:"stored"`
}

// StageResult is the outcome of one stage.
type StageResult struct {
	Name     string        `yaml:"name"`
	Status   string        `yaml:"status"`
	Duration time.Duration `yaml:"duration"`
	Error    string        `yaml:"error,omitempty"`
}

// Manifest describes a finished run. API keys are never written.
type Manifest struct {
	RunID      string         `yaml:"run_id"`
	TraceID    string         `yaml:"trace_id,omitempty"`
	Status     string         `yaml:"status"`
	Error      string         `yaml:"error,omitempty"`
	StartedAt  time.Time      `yaml:"started_at"`
	FinishedAt time.Time      `yaml:"finished_at"`
	Paths      Paths          `yaml:"paths"`
	Report     string         `yaml:"report,omitempty"`
	PDF        string         `yaml:"pdf,omitempty"`
	Counts     Counts         `yaml:"counts"`
	Stages     []StageResult  `yaml:"stages"`
	Config     *config.Config `yaml:"config"`
}

func (p *Pipeline) manifest(started time.Time, runErr error) *Manifest {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := &Manifest{
		RunID:      p.runID,
		Status:     StatusOK,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Paths:      p.paths,
		PDF:        p.pdfPath,
		Counts:     p.counts,
		Stages:     append([]StageResult(nil), p.stages...),
		Config:     p.cfg,
	}
	if p.reported {
		m.Report = p.paths.Report
	}
	if runErr != nil {
		m.Status = StatusFailed
		m.Error = runErr.Error()
	}
	return m
}

// WriteManifest atomically writes m as YAML.
func WriteManifest(path string, m *Manifest) error {
	return tabular.WriteFileAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		return enc.Close()
	})
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}
