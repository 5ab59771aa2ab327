package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

type importPublicationRepository interface {
	Exists(ctx context.Context, title, journalID string, publishYear int) (bool, error)
	Create(ctx context.Context, pub *models.Publication) error
}

type importJournalRepository interface {
	FindByName(ctx context.Context, name string) (*models.Journal, error)
	FindByNameYear(ctx context.Context, name string, year int) (*models.Journal, error)
	Create(ctx context.Context, journal *models.Journal) error
}

type importDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	FindByName(ctx context.Context, name string) (*models.Department, error)
}

type importAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ImportConfig bounds the upload accepted by the import pipeline.
type ImportConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	MaxRows           int
}

// ImportService runs the bulk spreadsheet import pipeline. Every row is
// processed in isolation; a row failing validation or resolution is recorded
// and the batch continues. Rows already present in the store, or repeated
// within the batch, count as duplicates rather than errors.
type ImportService struct {
	publications importPublicationRepository
	journals     importJournalRepository
	departments  importDepartmentRepository
	auditor      importAuditor
	stats        statsInvalidator
	config       ImportConfig
	logger       *zap.Logger
}

// NewImportService constructs an ImportService instance. stats may be nil
// when statistics caching is disabled.
func NewImportService(publications importPublicationRepository, journals importJournalRepository, departments importDepartmentRepository, auditor importAuditor, stats statsInvalidator, config ImportConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if config.MaxRows <= 0 {
		config.MaxRows = 5000
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".xlsx", ".csv"}
	}
	return &ImportService{publications: publications, journals: journals, departments: departments, auditor: auditor, stats: stats, config: config, logger: logger}
}

// publicationRow is one parsed data row before resolution.
type publicationRow struct {
	index          int
	title          string
	authors        string
	journalName    string
	publishYear    string
	volume         string
	issue          string
	pages          string
	doi            string
	departmentName string
}

// ImportPublications parses the upload and inserts one publication per valid
// row. defaultDepartmentID applies when a row carries no department column;
// department admins must pass their own department.
func (s *ImportService) ImportPublications(ctx context.Context, actor *models.JWTClaims, reader io.Reader, filename string, size int64, defaultDepartmentID string) (*models.ImportResult, error) {
	rows, err := s.parseUpload(reader, filename, size)
	if err != nil {
		return nil, err
	}
	header, data, err := splitHeader(rows)
	if err != nil {
		return nil, err
	}
	columns, err := mapPublicationColumns(header)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleDepartmentAdmin {
		if actor.DepartmentID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no department assigned")
		}
		if defaultDepartmentID == "" {
			defaultDepartmentID = *actor.DepartmentID
		} else if defaultDepartmentID != *actor.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "import is limited to your own department")
		}
	}
	if defaultDepartmentID != "" {
		if _, err := s.departments.FindByID(ctx, defaultDepartmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "default department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve default department")
		}
	}

	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	currentYear := time.Now().Year()
	touched := make(map[string]struct{})
	seen := make(map[string]struct{})

	for i, cells := range data {
		row := publicationRowFrom(i+1, cells, columns)

		fieldErr := validatePublicationRow(row, currentYear)
		if fieldErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, *fieldErr)
			continue
		}

		journal, err := s.journals.FindByName(ctx, row.journalName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Failed++
				result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Field: "journal", Message: fmt.Sprintf("unknown journal %q", row.journalName)})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve journal")
		}

		departmentID := defaultDepartmentID
		if row.departmentName != "" {
			dept, err := s.departments.FindByName(ctx, row.departmentName)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					result.Failed++
					result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Field: "department", Message: fmt.Sprintf("unknown department %q", row.departmentName)})
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve department")
			}
			if actor.Role == models.RoleDepartmentAdmin && actor.DepartmentID != nil && dept.ID != *actor.DepartmentID {
				result.Failed++
				result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Field: "department", Message: "row belongs to another department"})
				continue
			}
			departmentID = dept.ID
		}
		if departmentID == "" {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Field: "department", Message: "no department given and no default set"})
			continue
		}

		year, _ := strconv.Atoi(row.publishYear)
		key := dedupKey(row.title, journal.ID, year)
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		exists, err := s.publications.Exists(ctx, row.title, journal.ID, year)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to check for duplicate publication")
		}
		if exists {
			seen[key] = struct{}{}
			result.Duplicates++
			continue
		}

		pub := &models.Publication{
			Title:        row.title,
			Authors:      row.authors,
			JournalID:    journal.ID,
			DepartmentID: departmentID,
			UserID:       actor.UserID,
			PublishYear:  year,
			Volume:       optional(row.volume),
			Issue:        optional(row.issue),
			Pages:        optional(row.pages),
			DOI:          optional(row.doi),
		}
		if err := s.publications.Create(ctx, pub); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Field: "row", Message: "failed to store row"})
			s.logger.Warn("import row insert failed", zap.Int("row", row.index), zap.Error(err))
			continue
		}
		seen[key] = struct{}{}
		touched[departmentID] = struct{}{}
		result.Success++
	}

	for departmentID := range touched {
		if s.stats != nil {
			s.stats.Invalidate(ctx, departmentID)
		}
	}
	s.audit(ctx, actor, "publications", result)
	return result, nil
}

// ImportJournals parses the upload and inserts one journal per valid row.
// The duplicate identity is (name, year).
func (s *ImportService) ImportJournals(ctx context.Context, actor *models.JWTClaims, reader io.Reader, filename string, size int64) (*models.ImportResult, error) {
	rows, err := s.parseUpload(reader, filename, size)
	if err != nil {
		return nil, err
	}
	header, data, err := splitHeader(rows)
	if err != nil {
		return nil, err
	}
	columns, err := mapJournalColumns(header)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	currentYear := time.Now().Year()
	seen := make(map[string]struct{})

	for i, cells := range data {
		index := i + 1
		name := strings.TrimSpace(cell(cells, columns["name"]))
		yearRaw := strings.TrimSpace(cell(cells, columns["year"]))
		impactRaw := strings.TrimSpace(cell(cells, columns["impact_factor"]))
		quartileRaw := strings.ToUpper(strings.TrimSpace(cell(cells, columns["quartile"])))

		if name == "" {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: index, Field: "name", Message: "name is required"})
			continue
		}
		year, err := strconv.Atoi(yearRaw)
		if err != nil || year < models.MinPublishYear || year > currentYear+1 {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: index, Field: "year", Message: fmt.Sprintf("year must be between %d and %d", models.MinPublishYear, currentYear+1)})
			continue
		}
		impact, err := strconv.ParseFloat(impactRaw, 64)
		if err != nil || impact < models.MinImpactFactor || impact > models.MaxImpactFactor {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: index, Field: "impact_factor", Message: fmt.Sprintf("impact factor must be between %.1f and %.1f", models.MinImpactFactor, models.MaxImpactFactor)})
			continue
		}
		quartile := models.Quartile(quartileRaw)
		if !quartile.Valid() {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: index, Field: "quartile", Message: "quartile must be one of Q1, Q2, Q3, Q4"})
			continue
		}

		key := strings.ToLower(name) + "|" + yearRaw
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		if existing, err := s.journals.FindByNameYear(ctx, name, year); err == nil && existing != nil {
			seen[key] = struct{}{}
			result.Duplicates++
			continue
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to check for duplicate journal")
		}

		journal := &models.Journal{Name: name, Year: year, ImpactFactor: impact, Quartile: quartile}
		if err := s.journals.Create(ctx, journal); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: index, Field: "row", Message: "failed to store row"})
			s.logger.Warn("journal import row insert failed", zap.Int("row", index), zap.Error(err))
			continue
		}
		seen[key] = struct{}{}
		result.Success++
	}

	s.audit(ctx, actor, "journals", result)
	return result, nil
}

// parseUpload enforces the file constraints and returns the raw cell rows.
func (s *ImportService) parseUpload(reader io.Reader, filename string, size int64) ([][]string, error) {
	if size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extensionAllowed(ext) {
		return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("unsupported file type %q", ext))
	}

	payload, err := io.ReadAll(io.LimitReader(reader, s.config.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFileUpload.Code, appErrors.ErrFileUpload.Status, "failed to read upload")
	}
	if int64(len(payload)) > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}

	var rows [][]string
	switch ext {
	case ".xlsx":
		rows, err = parseXLSX(payload)
	case ".csv":
		rows, err = parseCSV(payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("unsupported file type %q", ext))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFileUpload.Code, appErrors.ErrFileUpload.Status, "failed to parse upload")
	}
	if len(rows) > s.config.MaxRows+1 {
		return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("upload exceeds the %d row limit", s.config.MaxRows))
	}
	return rows, nil
}

func (s *ImportService) extensionAllowed(ext string) bool {
	for _, allowed := range s.config.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *ImportService) audit(ctx context.Context, actor *models.JWTClaims, resource string, result *models.ImportResult) {
	if s.auditor == nil {
		return
	}
	payload := fmt.Sprintf(`{"success":%d,"failed":%d,"duplicates":%d}`, result.Success, result.Failed, result.Duplicates)
	log := &models.AuditLog{
		UserID:    &actor.UserID,
		Action:    models.AuditActionImport,
		Resource:  resource,
		NewValues: []byte(payload),
	}
	if err := s.auditor.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record import audit log", zap.Error(err))
	}
}

func parseXLSX(payload []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func parseCSV(payload []byte) ([][]string, error) {
	payload = bytes.TrimPrefix(payload, []byte("\xEF\xBB\xBF"))
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func splitHeader(rows [][]string) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrFileUpload, "upload is empty")
	}
	if len(rows) == 1 {
		return rows[0], nil, nil
	}
	return rows[0], rows[1:], nil
}

// mapPublicationColumns resolves header names to column indexes. Header
// matching is case-insensitive and ignores spaces and underscores.
func mapPublicationColumns(header []string) (map[string]int, error) {
	columns := headerIndex(header, map[string]string{
		"title":       "title",
		"authors":     "authors",
		"author":      "authors",
		"journal":     "journal",
		"journalname": "journal",
		"year":        "year",
		"publishyear": "year",
		"volume":      "volume",
		"issue":       "issue",
		"pages":       "pages",
		"doi":         "doi",
		"department":  "department",
	})
	for _, required := range []string{"title", "authors", "journal", "year"} {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("missing required column %q", required))
		}
	}
	return columns, nil
}

func mapJournalColumns(header []string) (map[string]int, error) {
	columns := headerIndex(header, map[string]string{
		"name":         "name",
		"journal":      "name",
		"journalname":  "name",
		"year":         "year",
		"impactfactor": "impact_factor",
		"impact":       "impact_factor",
		"quartile":     "quartile",
	})
	for _, required := range []string{"name", "year", "impact_factor", "quartile"} {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrFileUpload, fmt.Sprintf("missing required column %q", required))
		}
	}
	return columns, nil
}

func headerIndex(header []string, aliases map[string]string) map[string]int {
	columns := make(map[string]int)
	for i, raw := range header {
		normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(raw)))
		if canonical, ok := aliases[normalized]; ok {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}
	return columns
}

func publicationRowFrom(index int, cells []string, columns map[string]int) publicationRow {
	return publicationRow{
		index:          index,
		title:          strings.TrimSpace(cell(cells, columns["title"])),
		authors:        strings.TrimSpace(cell(cells, columns["authors"])),
		journalName:    strings.TrimSpace(cell(cells, columns["journal"])),
		publishYear:    strings.TrimSpace(cell(cells, columns["year"])),
		volume:         strings.TrimSpace(cellOpt(cells, columns, "volume")),
		issue:          strings.TrimSpace(cellOpt(cells, columns, "issue")),
		pages:          strings.TrimSpace(cellOpt(cells, columns, "pages")),
		doi:            strings.TrimSpace(cellOpt(cells, columns, "doi")),
		departmentName: strings.TrimSpace(cellOpt(cells, columns, "department")),
	}
}

func validatePublicationRow(row publicationRow, currentYear int) *models.ImportRowError {
	if row.title == "" {
		return &models.ImportRowError{Row: row.index, Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(row.title) > models.MaxTitleLen {
		return &models.ImportRowError{Row: row.index, Field: "title", Message: fmt.Sprintf("title exceeds %d characters", models.MaxTitleLen)}
	}
	if row.authors == "" {
		return &models.ImportRowError{Row: row.index, Field: "authors", Message: "authors is required"}
	}
	if utf8.RuneCountInString(row.authors) > models.MaxAuthorsLen {
		return &models.ImportRowError{Row: row.index, Field: "authors", Message: fmt.Sprintf("authors exceeds %d characters", models.MaxAuthorsLen)}
	}
	if row.journalName == "" {
		return &models.ImportRowError{Row: row.index, Field: "journal", Message: "journal is required"}
	}
	year, err := strconv.Atoi(row.publishYear)
	if err != nil || year < models.MinPublishYear || year > currentYear {
		return &models.ImportRowError{Row: row.index, Field: "year", Message: fmt.Sprintf("publish year must be between %d and %d", models.MinPublishYear, currentYear)}
	}
	return nil
}

func dedupKey(title, journalID string, year int) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + journalID + "|" + strconv.Itoa(year)
}

func cell(cells []string, index int) string {
	if index < 0 || index >= len(cells) {
		return ""
	}
	return cells[index]
}

func cellOpt(cells []string, columns map[string]int, name string) string {
	index, ok := columns[name]
	if !ok {
		return ""
	}
	return cell(cells, index)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
