package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/domain"
	"crm-sync-api/internal/metrics"
	"crm-sync-api/internal/repository"
)

// SyncService orchestrates full resyncs from the CRM into local storage
type SyncService interface {
	// SyncAll runs one full resync for the credential's location:
	// contacts first, then opportunities, each reconciled in its own
	// transaction. The returned run carries the final counters.
	SyncAll(ctx context.Context, credential *domain.AuthCredential) (*domain.SyncRun, error)
	// SyncPipelines reloads pipeline definitions wholesale.
	SyncPipelines(ctx context.Context, credential *domain.AuthCredential) ([]*domain.Pipeline, error)
	// ListRuns returns recent sync runs newest-first.
	ListRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error)
	// ListPipelines returns stored pipelines with ordered stages.
	ListPipelines(ctx context.Context) ([]*domain.Pipeline, error)
}

// syncService is the implementation of SyncService
type syncService struct {
	crm           client.CRMClient
	contacts      repository.ContactRepository
	opportunities repository.OpportunityRepository
	pipelines     repository.PipelineRepository
	runs          repository.SyncRunRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	crm client.CRMClient,
	contacts repository.ContactRepository,
	opportunities repository.OpportunityRepository,
	pipelines repository.PipelineRepository,
	runs repository.SyncRunRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		crm:           crm,
		contacts:      contacts,
		opportunities: opportunities,
		pipelines:     pipelines,
		runs:          runs,
		metrics:       m,
		logger:        logger,
	}
}

// SyncAll runs one full resync end to end. Contacts commit before the
// opportunity walk starts so every opportunity can resolve its contact
// against fresh rows. Any error fails the whole run; there is no
// partial or resumable state.
func (s *syncService) SyncAll(ctx context.Context, credential *domain.AuthCredential) (*domain.SyncRun, error) {
	run := &domain.SyncRun{
		LocationID: credential.LocationID,
		Status:     domain.SyncRunRunning,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to open sync run: %w", err)
	}

	s.logger.Info("Starting full sync",
		zap.String("location_id", credential.LocationID),
		zap.String("run_id", run.ID.String()),
	)

	err := s.runSync(ctx, credential, run)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	duration := finished.Sub(run.StartedAt)

	if err != nil {
		run.Status = domain.SyncRunFailed
		run.Error = err.Error()
		s.metrics.RecordSyncRun("full", "failure", duration)
		s.logger.Error("Full sync failed",
			zap.String("run_id", run.ID.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		run.Status = domain.SyncRunSucceeded
		s.metrics.RecordSyncRun("full", "success", duration)
		s.logger.Info("Full sync completed",
			zap.String("run_id", run.ID.String()),
			zap.Duration("duration", duration),
			zap.Int("contacts_fetched", run.ContactsFetched),
			zap.Int("opportunities_fetched", run.OpportunitiesFetched),
			zap.Int("opportunities_dropped", run.OpportunitiesDropped),
		)
	}

	if saveErr := s.runs.Update(ctx, run); saveErr != nil {
		s.logger.Error("Failed to save sync run state",
			zap.String("run_id", run.ID.String()),
			zap.Error(saveErr),
		)
	}
	return run, err
}

func (s *syncService) runSync(ctx context.Context, credential *domain.AuthCredential, run *domain.SyncRun) error {
	contactRecords, err := s.fetchAllContacts(ctx, credential.AccessToken, credential.LocationID)
	if err != nil {
		return fmt.Errorf("contact fetch failed: %w", err)
	}
	run.ContactsFetched = len(contactRecords)

	created, updated, err := s.reconcileContacts(ctx, contactRecords)
	if err != nil {
		return fmt.Errorf("contact reconcile failed: %w", err)
	}
	run.ContactsCreated = created
	run.ContactsUpdated = updated

	opportunityRecords, err := s.fetchAllOpportunities(ctx, credential.AccessToken, credential.LocationID)
	if err != nil {
		return fmt.Errorf("opportunity fetch failed: %w", err)
	}
	run.OpportunitiesFetched = len(opportunityRecords)

	created, updated, dropped, err := s.reconcileOpportunities(ctx, opportunityRecords)
	if err != nil {
		return fmt.Errorf("opportunity reconcile failed: %w", err)
	}
	run.OpportunitiesCreated = created
	run.OpportunitiesUpdated = updated
	run.OpportunitiesDropped = dropped
	return nil
}

// SyncPipelines reloads pipeline definitions from the CRM and replaces
// the local ones wholesale.
func (s *syncService) SyncPipelines(ctx context.Context, credential *domain.AuthCredential) ([]*domain.Pipeline, error) {
	records, err := s.crm.GetPipelines(ctx, credential.AccessToken, credential.LocationID)
	if err != nil {
		return nil, fmt.Errorf("pipeline fetch failed: %w", err)
	}

	pipelines := make([]*domain.Pipeline, 0, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		pipeline := normalizePipeline(record)
		pipelines = append(pipelines, &pipeline)
	}

	if err := s.pipelines.ReplaceAll(ctx, pipelines); err != nil {
		return nil, fmt.Errorf("pipeline replace failed: %w", err)
	}

	s.logger.Info("Reloaded pipeline definitions",
		zap.String("location_id", credential.LocationID),
		zap.Int("pipelines", len(pipelines)),
	)
	return pipelines, nil
}

// ListRuns returns recent sync runs newest-first
func (s *syncService) ListRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.FindRecent(ctx, limit)
}

// ListPipelines returns stored pipelines with ordered stages
func (s *syncService) ListPipelines(ctx context.Context) ([]*domain.Pipeline, error) {
	return s.pipelines.FindAll(ctx)
}
