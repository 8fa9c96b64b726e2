package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/repository"
)

// importSource marks contact rows that came in through a file upload
const importSource = "csv_import"

// ImportService loads contact export files into local storage. Each
// accepted file is archived so imports stay auditable.
type ImportService interface {
	// ImportContacts parses a CSV export and upserts every row with a
	// contact id. The raw file is archived after a successful parse.
	ImportContacts(ctx context.Context, fileName string, file io.Reader) (*dto.ImportResultResponse, error)
}

// importService is the implementation of ImportService
type importService struct {
	contacts repository.ContactRepository
	archive  client.ArchiveClientInterface
	logger   *zap.Logger
}

// NewImportService creates a new ImportService. The archive client may
// be nil, in which case files are imported without archival.
func NewImportService(contacts repository.ContactRepository, archive client.ArchiveClientInterface, logger *zap.Logger) ImportService {
	return &importService{
		contacts: contacts,
		archive:  archive,
		logger:   logger,
	}
}

// ImportContacts parses a CSV export and upserts every usable row
func (s *importService) ImportContacts(ctx context.Context, fileName string, file io.Reader) (*dto.ImportResultResponse, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns["Contact Id"]; !ok {
		return nil, fmt.Errorf("import file has no Contact Id column")
	}

	result := &dto.ImportResultResponse{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		result.Rows++

		cell := func(name string) *string {
			index, ok := columns[name]
			if !ok || index >= len(row) {
				return nil
			}
			value := row[index]
			return &value
		}

		externalID := cleanString(cell("Contact Id"), maxSourceIDLen)
		if externalID == "" {
			result.Skipped++
			continue
		}

		record := client.ContactRecord{
			ID:        externalID,
			FirstName: cell("First Name"),
			LastName:  cell("Last Name"),
			Email:     cell("Email"),
			Phone:     cell("Phone"),
			Address:   cell("Address (full)"),
			Country:   cell("Country"),
			Source:    cell("Source"),
			CreatedAt: stringOrEmpty(cell("Created")),
		}

		contact := normalizeContact(record)
		if contact.Source == defaultSource {
			contact.Source = importSource
		}

		created, err := s.contacts.Upsert(ctx, &contact)
		if err != nil {
			s.logger.Warn("Skipping unimportable row",
				zap.String("contact_id", externalID),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if s.archive != nil {
		key, archiveURL, err := s.archive.ArchiveImportFile(ctx, fileName, bytes.NewReader(raw), "text/csv")
		if err != nil {
			// The data is already in; losing the archive copy is not fatal
			s.logger.Error("Failed to archive import file",
				zap.String("file_name", fileName),
				zap.Error(err),
			)
		} else {
			result.ArchiveKey = key
			result.ArchiveURL = archiveURL
		}
	}

	s.logger.Info("Contact import finished",
		zap.String("file_name", fileName),
		zap.Int("rows", result.Rows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
