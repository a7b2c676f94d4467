package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"journal-pulse/config"
	"journal-pulse/models"
	"journal-pulse/storage"
	"journal-pulse/workbook"
)

// ImportService orchestrates the whole ingestion run: discover spreadsheet
// exports, identify the university per file, normalize rows into journals and
// subscriptions, and synthesize browsing telemetry.
type ImportService struct {
	Config   *config.Config
	DB       *gorm.DB
	S3Client *s3.Client // optional, archives processed files when configured
	Logger   *zap.Logger
	Reader   workbook.Reader
	Synth    TelemetrySynthesizer
}

// NewImportService creates a new instance of the ImportService.
func NewImportService(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger, reader workbook.Reader, synth TelemetrySynthesizer) *ImportService {
	return &ImportService{
		Config:   cfg,
		DB:       db,
		S3Client: s3Client,
		Logger:   logger,
		Reader:   reader,
		Synth:    synth,
	}
}

// ImportStats aggregates the outcome of one batch run.
type ImportStats struct {
	FilesProcessed   int `json:"files_processed"`
	FilesFailed      int `json:"files_failed"`
	RowsProcessed    int `json:"rows_processed"`
	RowsSkipped      int `json:"rows_skipped"`
	NewSubscriptions int `json:"new_subscriptions"`
	NewEvents        int `json:"new_events"`
}

// fileResult is the outcome of processing a single export file.
type fileResult struct {
	UniversityName       string
	RowsProcessed        int
	RowsSkipped          int
	SubscriptionsCreated int
	EventsCreated        int
	ResolvedColumns      map[string]string
}

// Run executes the full ingestion batch. When the universities collection is
// already populated the whole batch is skipped; partial prior ingestion is
// never topped up, only fully redone via Reset.
func (s *ImportService) Run(ctx context.Context) (ImportStats, error) {
	var stats ImportStats

	var universityCount int64
	if err := s.DB.WithContext(ctx).Model(&models.University{}).Count(&universityCount).Error; err != nil {
		return stats, fmt.Errorf("count universities: %w", err)
	}
	if universityCount > 0 {
		s.Logger.Info("Data already ingested, skipping batch run. Use reset to reingest.",
			zap.Int64("universities", universityCount))
		return stats, nil
	}

	files, err := s.discoverFiles()
	if err != nil {
		return stats, err
	}
	if len(files) == 0 {
		s.Logger.Warn("No spreadsheet files found in import directory",
			zap.String("dir", s.Config.ImportDir))
		return stats, nil
	}
	s.Logger.Info("Starting ingestion batch", zap.Int("files", len(files)))

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 3) // limit parallel file processing

	for _, file := range files {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := s.processFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One file's failure never aborts the batch.
				s.Logger.Error("File processing failed", zap.String("file", path), zap.Error(err))
				stats.FilesFailed++
				return
			}
			stats.FilesProcessed++
			stats.RowsProcessed += result.RowsProcessed
			stats.RowsSkipped += result.RowsSkipped
			stats.NewSubscriptions += result.SubscriptionsCreated
			stats.NewEvents += result.EventsCreated
		}(file)
	}

	wg.Wait()
	s.Logger.Info("Ingestion batch completed",
		zap.Int("files_processed", stats.FilesProcessed),
		zap.Int("files_failed", stats.FilesFailed),
		zap.Int("new_subscriptions", stats.NewSubscriptions),
		zap.Int("new_events", stats.NewEvents))
	return stats, nil
}

// Reset clears all four collections plus the import log, then re-runs the
// full ingestion pipeline from the import directory.
func (s *ImportService) Reset(ctx context.Context) (ImportStats, error) {
	s.Logger.Info("Resetting all ingested data")
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.BrowsingEvent{}, &models.Subscription{}, &models.Journal{},
			&models.University{}, &models.ImportRun{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("reset collections: %w", err)
	}
	return s.Run(ctx)
}

// discoverFiles lists spreadsheet exports in the configured directory,
// ignoring Office lock files.
func (s *ImportService) discoverFiles() ([]string, error) {
	entries, err := os.ReadDir(s.Config.ImportDir)
	if err != nil {
		return nil, fmt.Errorf("read import dir %s: %w", s.Config.ImportDir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			files = append(files, filepath.Join(s.Config.ImportDir, name))
		}
	}
	return files, nil
}

// processFile ingests one university export. The reset+insert sequence runs
// in a single transaction so a crash mid-file cannot leave the university
// with half its records gone.
func (s *ImportService) processFile(ctx context.Context, path string) (*fileResult, error) {
	log := s.Logger.With(zap.String("file", filepath.Base(path)))

	universityName := UniversityFromFilename(path)
	if universityName == "" {
		s.recordRun(ctx, path, "", nil, models.ImportStatusSkipped, "filename does not yield a university name")
		return nil, fmt.Errorf("cannot identify university from filename %s", filepath.Base(path))
	}
	log = log.With(zap.String("university", universityName))

	wb, err := s.Reader.Read(path)
	if err != nil {
		s.recordRun(ctx, path, universityName, nil, models.ImportStatusFailed, err.Error())
		return nil, err
	}
	sheet := wb.DataSheet()
	if sheet == nil || len(sheet.Rows) == 0 {
		s.recordRun(ctx, path, universityName, nil, models.ImportStatusSkipped, "no data rows")
		return nil, fmt.Errorf("workbook %s has no data rows", filepath.Base(path))
	}
	log.Info("Processing sheet", zap.String("sheet", sheet.Name), zap.Int("rows", len(sheet.Rows)))

	result := &fileResult{
		UniversityName:  universityName,
		ResolvedColumns: ResolvedColumns(sheet.Rows[0]),
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		university, err := s.getOrCreateUniversity(tx, universityName)
		if err != nil {
			return err
		}

		// Full replace: drop everything previously ingested for this
		// university before inserting the new state.
		if err := tx.Where("university_id = ?", university.ID).Delete(&models.Subscription{}).Error; err != nil {
			return fmt.Errorf("clear subscriptions: %w", err)
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&models.BrowsingEvent{}).Error; err != nil {
			return fmt.Errorf("clear browsing events: %w", err)
		}

		for _, row := range sheet.Rows {
			// Each row runs in its own savepoint. A storage failure rolls
			// back that row alone instead of poisoning the file transaction;
			// the rest of the sheet proceeds.
			var subscriptions, events int
			rowErr := tx.Transaction(func(rowTx *gorm.DB) error {
				var err error
				subscriptions, events, err = s.processRow(rowTx, university, row, rng)
				return err
			})
			if rowErr != nil {
				log.Warn("Row skipped", zap.Error(rowErr))
				result.RowsSkipped++
				continue
			}
			result.RowsProcessed++
			result.SubscriptionsCreated += subscriptions
			result.EventsCreated += events
		}
		return nil
	})
	if err != nil {
		s.recordRun(ctx, path, universityName, result, models.ImportStatusFailed, err.Error())
		return nil, err
	}

	s.recordRun(ctx, path, universityName, result, models.ImportStatusCompleted, "")
	s.archiveFile(ctx, log, path)

	log.Info("File ingested",
		zap.Int("rows_processed", result.RowsProcessed),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Int("subscriptions", result.SubscriptionsCreated),
		zap.Int("events", result.EventsCreated))
	return result, nil
}

// processRow normalizes one spreadsheet row into journal, subscription and
// browsing history records. It reports what it created instead of mutating
// shared counters, so a rolled-back row leaves the tallies untouched.
func (s *ImportService) processRow(tx *gorm.DB, university *models.University, row workbook.Row, rng *rand.Rand) (subscriptions, events int, err error) {
	title, ok := ResolveField(row, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return 0, 0, fmt.Errorf("no journal title column matched")
	}
	title = strings.TrimSpace(title)

	publisher, _ := ResolveField(row, "publisher")
	if strings.TrimSpace(publisher) == "" {
		publisher = "Unknown"
	}
	subject, _ := ResolveField(row, "subject")
	if strings.TrimSpace(subject) == "" {
		subject = "General"
	}
	issn, _ := ResolveField(row, "issn")

	journal, err := s.getOrCreateJournal(tx, title, issn, publisher, subject)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert journal %q: %w", title, err)
	}

	rawFlag, _ := ResolveField(row, "subscribed")
	subscribed := ParseBool(rawFlag)

	if subscribed {
		rawCost, _ := ResolveField(row, "cost")
		cost, synthesized := ParseCurrency(rawCost, DefaultCostRange, rng)

		sub := NewSubscription(university.ID, journal.ID, cost, synthesized, time.Now())
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "university_id"}, {Name: "journal_id"}, {Name: "status"}},
			DoUpdates: clause.AssignmentColumns([]string{"annual_cost", "cost_synthesized", "start_date", "end_date", "updated_at"}),
		}).Create(&sub).Error; err != nil {
			return 0, 0, fmt.Errorf("upsert subscription: %w", err)
		}
		subscriptions = 1
	}

	batch := s.Synth.Events(university.ID, journal.ID, subscribed)
	if len(batch) > 0 {
		if err := tx.CreateInBatches(batch, 100).Error; err != nil {
			return 0, 0, fmt.Errorf("insert browsing events: %w", err)
		}
		events = len(batch)
	}

	return subscriptions, events, nil
}

// getOrCreateUniversity resolves the university by exact name. The insert is
// conflict-tolerant so concurrent files naming the same institution cannot
// create duplicates.
func (s *ImportService) getOrCreateUniversity(tx *gorm.DB, name string) (*models.University, error) {
	university := models.University{
		Name:    name,
		Country: CountryForUniversity(name),
		Type:    "Public",
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&university).Error; err != nil {
		return nil, fmt.Errorf("create university: %w", err)
	}
	if university.ID == 0 {
		if err := tx.Where("name = ?", name).First(&university).Error; err != nil {
			return nil, fmt.Errorf("lookup university: %w", err)
		}
	}
	return &university, nil
}

// getOrCreateJournal resolves a journal by exact title; keywords and the
// description are derived once on creation.
func (s *ImportService) getOrCreateJournal(tx *gorm.DB, title, issn, publisher, subject string) (*models.Journal, error) {
	journal := models.Journal{
		Title:       title,
		ISSN:        strings.TrimSpace(issn),
		Publisher:   publisher,
		SubjectArea: subject,
		Keywords:    DeriveKeywords(title, subject),
		Description: DeriveDescription(title, publisher, subject),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(&journal).Error; err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	if journal.ID == 0 {
		if err := tx.Where("title = ?", title).First(&journal).Error; err != nil {
			return nil, fmt.Errorf("lookup journal: %w", err)
		}
	}
	return &journal, nil
}

// recordRun writes the audit row for one file. Audit failures are logged only.
func (s *ImportService) recordRun(ctx context.Context, path, universityName string, result *fileResult, status, errMsg string) {
	run := models.ImportRun{
		FileName:       filepath.Base(path),
		UniversityName: universityName,
		Status:         status,
		Error:          errMsg,
	}
	if result != nil {
		run.RowsProcessed = result.RowsProcessed
		run.RowsSkipped = result.RowsSkipped
		run.SubscriptionsCreated = result.SubscriptionsCreated
		run.EventsCreated = result.EventsCreated
		if len(result.ResolvedColumns) > 0 {
			if details, err := json.Marshal(result.ResolvedColumns); err == nil {
				run.Details = details
			}
		}
	}
	if err := s.DB.WithContext(ctx).Create(&run).Error; err != nil {
		s.Logger.Warn("Failed to record import run", zap.String("file", run.FileName), zap.Error(err))
	}
}

// archiveFile uploads the processed spreadsheet to S3 when an archive bucket
// is configured. Archive failures never fail the import.
func (s *ImportService) archiveFile(ctx context.Context, log *zap.Logger, path string) {
	if s.S3Client == nil || !s.Config.ArchiveEnabled() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read file for archiving", zap.Error(err))
		return
	}
	key := fmt.Sprintf("imports/%s/%s", time.Now().UTC().Format("2006-01-02"), filepath.Base(path))
	link, err := storage.UploadFile(ctx, s.S3Client, s.Config.ArchiveS3Bucket, key, data, s.Config)
	if err != nil {
		log.Warn("S3 archive upload failed", zap.Error(err))
		return
	}
	log.Info("Spreadsheet archived", zap.String("s3_link", link))
}
