// Package store keeps the history of batch runs in a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farcloser/critic"
)

var ErrNoRun = errors.New("no run recorded")

// Run is one invocation of the batch report.
type Run struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	StartedAt time.Time
	Source    string
	Checks    string
	Files     []File `gorm:"constraint:OnDelete:CASCADE"`
}

// File is the outcome for one input of a run.
type File struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	RunID         string `gorm:"type:varchar(36);index:idx_file_run"`
	Path          string `gorm:"index:idx_file_path"`
	Codec         string
	SampleRate    int
	Channels      int
	DurationMs    int64
	LUFS          float64
	IssueCount    int
	WorstSeverity string
	Error         string
	Observations  []Observation `gorm:"constraint:OnDelete:CASCADE"`
}

// Observation is a stored defect.
type Observation struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	FileID   uint   `gorm:"index:idx_observation_file"`
	Kind     string `gorm:"index:idx_observation_kind"`
	Temporal string
	Severity string
	Level    int
	StartMs  int64
	EndMs    int64
}

// KindCount aggregates the observations of one kind in a run.
type KindCount struct {
	Kind     string
	Files    int
	Total    int
	Mild     int
	Moderate int
	Severe   int
}

// Store wraps the database.
type Store struct {
	db *gorm.DB
}

// Open creates or migrates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Run{}, &File{}, &Observation{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}

		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err //nolint:wrapcheck // gorm errors are returned as is
	}

	return sqlDB.Close() //nolint:wrapcheck // gorm errors are returned as is
}

// SaveRun records batch under a new run identifier, which is returned.
func (s *Store) SaveRun(ctx context.Context, started time.Time, source, checks string, batch *critic.Batch) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
		Source:    source,
		Checks:    checks,
	}

	for _, file := range batch.Files {
		row := File{Path: file.Path}

		if file.Err != nil {
			row.Error = file.Err.Error()
			run.Files = append(run.Files, row)

			continue
		}

		result := file.Result
		row.Codec = result.Codec
		row.SampleRate = result.Format.SampleRate
		row.Channels = int(result.Format.Channels) //nolint:gosec // channel count is small
		row.DurationMs = result.DurationMs
		row.LUFS = result.Loudness.IntegratedLUFS
		row.IssueCount = result.IssueCount
		row.WorstSeverity = result.WorstSeverity.String()

		for _, obs := range result.Observations {
			row.Observations = append(row.Observations, Observation{
				Kind:     obs.Kind.String(),
				Temporal: obs.Temporal.String(),
				Severity: obs.Severity.String(),
				Level:    int(obs.Severity),
				StartMs:  obs.StartMs,
				EndMs:    obs.EndMs,
			})
		}

		run.Files = append(run.Files, row)
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}

	return run.ID, nil
}

// LatestRun loads the most recent run with its files and observations.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var run Run

	err := s.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Files.Observations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRun
	}

	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}

	return &run, nil
}

// KindCounts aggregates the observations of runID by kind, most frequent first.
func (s *Store) KindCounts(ctx context.Context, runID string) ([]KindCount, error) {
	var counts []KindCount

	err := s.db.WithContext(ctx).
		Model(&Observation{}).
		Select(`observations.kind AS kind,
			COUNT(DISTINCT observations.file_id) AS files,
			COUNT(*) AS total,
			SUM(CASE WHEN observations.level = 1 THEN 1 ELSE 0 END) AS mild,
			SUM(CASE WHEN observations.level = 2 THEN 1 ELSE 0 END) AS moderate,
			SUM(CASE WHEN observations.level = 3 THEN 1 ELSE 0 END) AS severe`).
		Joins("JOIN files ON files.id = observations.file_id").
		Where("files.run_id = ?", runID).
		Group("observations.kind").
		Order("total DESC, kind").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("counting observations: %w", err)
	}

	return counts, nil
}
