package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/domain"
	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/metrics"
	"crm-sync-api/internal/repository"
)

// WebhookService applies CRM push events to local storage. The inbound
// payload is treated as a hint only: the record id selects what to fetch
// and the full detail always comes from the API.
type WebhookService interface {
	// LogEvent persists the raw payload before any validation.
	LogEvent(ctx context.Context, eventType string, raw []byte) error
	// ProcessEvent reconciles one event. Unknown types and missing ids
	// are dropped without error so the webhook is always acknowledged.
	ProcessEvent(ctx context.Context, event *dto.WebhookEvent) error
	// ListLogs returns recorded payloads newest-first with a total count.
	ListLogs(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error)
}

// webhookService is the implementation of WebhookService
type webhookService struct {
	crm           client.CRMClient
	contacts      repository.ContactRepository
	opportunities repository.OpportunityRepository
	pipelines     repository.PipelineRepository
	credentials   repository.CredentialRepository
	logs          repository.WebhookLogRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	crm client.CRMClient,
	contacts repository.ContactRepository,
	opportunities repository.OpportunityRepository,
	pipelines repository.PipelineRepository,
	credentials repository.CredentialRepository,
	logs repository.WebhookLogRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		crm:           crm,
		contacts:      contacts,
		opportunities: opportunities,
		pipelines:     pipelines,
		credentials:   credentials,
		logs:          logs,
		metrics:       m,
		logger:        logger,
	}
}

// LogEvent persists the raw payload before any validation
func (s *webhookService) LogEvent(ctx context.Context, eventType string, raw []byte) error {
	return s.logs.Create(ctx, &domain.WebhookLog{
		EventType: eventType,
		Data:      string(raw),
	})
}

// ListLogs returns recorded payloads newest-first
func (s *webhookService) ListLogs(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.logs.FindRecent(ctx, limit, offset)
}

// ProcessEvent reconciles one push event against local storage
func (s *webhookService) ProcessEvent(ctx context.Context, event *dto.WebhookEvent) error {
	recordID := event.RecordID()
	if recordID == "" {
		s.logger.Warn("Dropping webhook event without record id",
			zap.String("event_type", event.Type),
		)
		s.metrics.RecordWebhookEvent(event.Type, "dropped")
		return nil
	}

	var err error
	switch event.Type {
	case dto.EventContactCreate, dto.EventContactUpdate:
		err = s.applyContact(ctx, event, recordID)
	case dto.EventContactDelete:
		err = s.deleteContact(ctx, recordID)
	case dto.EventOpportunityCreate, dto.EventOpportunityUpdate:
		err = s.applyOpportunity(ctx, event, recordID)
	case dto.EventOpportunityDelete:
		err = s.deleteOpportunity(ctx, recordID)
	default:
		s.logger.Warn("Dropping webhook event of unknown type",
			zap.String("event_type", event.Type),
			zap.String("record_id", recordID),
		)
		s.metrics.RecordWebhookEvent(event.Type, "dropped")
		return nil
	}

	if err != nil {
		s.metrics.RecordWebhookEvent(event.Type, "failed")
		s.logger.Error("Webhook event processing failed",
			zap.String("event_type", event.Type),
			zap.String("record_id", recordID),
			zap.Error(err),
		)
		return err
	}
	s.metrics.RecordWebhookEvent(event.Type, "processed")
	return nil
}

// resolveCredential picks the credential for an event, preferring the
// payload's location and falling back to the first stored one.
func (s *webhookService) resolveCredential(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
	if locationID != "" {
		credential, err := s.credentials.FindByLocationID(ctx, locationID)
		if err == nil {
			return credential, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	credentials, err := s.credentials.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, fmt.Errorf("no stored credentials")
	}
	return credentials[0], nil
}

func (s *webhookService) applyContact(ctx context.Context, event *dto.WebhookEvent, recordID string) error {
	credential, err := s.resolveCredential(ctx, event.LocationID)
	if err != nil {
		return err
	}

	record, err := s.crm.GetContact(ctx, credential.AccessToken, recordID)
	if err != nil {
		if client.IsNotFound(err) {
			s.logger.Warn("Contact vanished upstream before fetch",
				zap.String("contact_id", recordID),
			)
			return nil
		}
		return err
	}

	contact := normalizeContact(*record)
	created, err := s.contacts.Upsert(ctx, &contact)
	if err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}
	s.metrics.AddRecordsReconciled("contacts", action, 1)
	return nil
}

func (s *webhookService) deleteContact(ctx context.Context, recordID string) error {
	err := s.contacts.DeleteWithOpportunities(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("Contact delete for unknown record",
			zap.String("contact_id", recordID),
		)
		return nil
	}
	return err
}

func (s *webhookService) applyOpportunity(ctx context.Context, event *dto.WebhookEvent, recordID string) error {
	credential, err := s.resolveCredential(ctx, event.LocationID)
	if err != nil {
		return err
	}

	record, err := s.crm.GetOpportunity(ctx, credential.AccessToken, recordID)
	if err != nil {
		if client.IsNotFound(err) {
			s.logger.Warn("Opportunity vanished upstream before fetch",
				zap.String("opportunity_id", recordID),
			)
			return nil
		}
		return err
	}

	contactID, err := s.resolveContact(ctx, credential, record)
	if err != nil {
		return err
	}
	if contactID == uuid.Nil {
		s.metrics.IncrementRecordsDropped("opportunities", "missing_contact")
		s.logger.Warn("Dropping opportunity event with unresolvable contact",
			zap.String("opportunity_id", recordID),
			zap.String("contact_id", stringOrEmpty(record.ContactID)),
		)
		return nil
	}

	var pipelineID, stageID *uuid.UUID
	if record.PipelineID != nil {
		pipelineIDs, err := s.pipelines.MapPipelineExternalIDs(ctx)
		if err != nil {
			return err
		}
		if id, ok := pipelineIDs[*record.PipelineID]; ok {
			pipelineID = &id
		} else {
			s.logger.Warn("Unknown pipeline reference on opportunity",
				zap.String("opportunity_id", recordID),
				zap.String("pipeline_id", *record.PipelineID),
			)
		}
	}
	if record.PipelineStageID != nil {
		stageIDs, err := s.pipelines.MapStageExternalIDs(ctx)
		if err != nil {
			return err
		}
		if id, ok := stageIDs[*record.PipelineStageID]; ok {
			stageID = &id
		} else {
			s.logger.Warn("Unknown stage reference on opportunity",
				zap.String("opportunity_id", recordID),
				zap.String("stage_id", *record.PipelineStageID),
			)
		}
	}

	opportunity := normalizeOpportunity(*record, contactID, pipelineID, stageID)
	created, err := s.opportunities.Upsert(ctx, &opportunity)
	if err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}
	s.metrics.AddRecordsReconciled("opportunities", action, 1)
	return nil
}

// resolveContact finds the local contact for an opportunity, pulling the
// contact from the API first when it has not been synced yet. Returns
// uuid.Nil when the contact cannot be resolved at all.
func (s *webhookService) resolveContact(ctx context.Context, credential *domain.AuthCredential, record *client.OpportunityRecord) (uuid.UUID, error) {
	contactExternalID := stringOrEmpty(record.ContactID)
	if contactExternalID == "" {
		return uuid.Nil, nil
	}

	existing, err := s.contacts.FindByExternalID(ctx, contactExternalID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	contactRecord, err := s.crm.GetContact(ctx, credential.AccessToken, contactExternalID)
	if err != nil {
		if client.IsNotFound(err) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}

	contact := normalizeContact(*contactRecord)
	if _, err := s.contacts.Upsert(ctx, &contact); err != nil {
		return uuid.Nil, err
	}
	s.metrics.AddRecordsReconciled("contacts", "created", 1)
	return contact.ID, nil
}

func (s *webhookService) deleteOpportunity(ctx context.Context, recordID string) error {
	err := s.opportunities.DeleteByExternalID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("Opportunity delete for unknown record",
			zap.String("opportunity_id", recordID),
		)
		return nil
	}
	return err
}
