package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smart-campus/campus-api/internal/models"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
	"github.com/smart-campus/campus-api/pkg/export"
	"github.com/smart-campus/campus-api/pkg/storage"
)

// Timetable export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type timetableReader interface {
	GetTimetable(ctx context.Context, semester string, year int) ([]models.Schedule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

// ExportService renders semester timetables into downloadable CSV or PDF
// files served through signed URLs.
type ExportService struct {
	timetables timetableReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		storage:    files,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

var timetableHeaders = []string{"Section", "Course", "Instructor", "Classroom", "Day", "Start", "End"}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// GenerateTimetable renders the semester timetable in the requested format
// and stores it for signed download.
func (s *ExportService) GenerateTimetable(ctx context.Context, semester string, year int, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	schedules, err := s.timetables.GetTimetable(ctx, semester, year)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable committed for this semester")
	}

	dataset := export.Dataset{Headers: timetableHeaders}
	for _, sched := range schedules {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Section":    fmt.Sprintf("%s-%02d", sched.CourseCode, sched.SectionNumber),
			"Course":     sched.CourseName,
			"Instructor": sched.InstructorName,
			"Classroom":  sched.ClassroomInfo,
			"Day":        dayNames[sched.DayOfWeek],
			"Start":      sched.StartTime,
			"End":        sched.EndTime,
		})
	}

	title := fmt.Sprintf("Timetable %s %d", semester, year)
	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	exportID := fmt.Sprintf("timetable-%s-%d-%d", strings.ToLower(semester), year, time.Now().UnixNano())
	filename := fmt.Sprintf("%s.%s", exportID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/schedule/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// OpenExport validates a download token and opens the referenced file.
func (s *ExportService) OpenExport(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired export token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, nil
}

// CleanupExpired removes export files older than the configured TTL.
func (s *ExportService) CleanupExpired() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}
