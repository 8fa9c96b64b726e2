package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/domain"
)

// dedupeContacts collapses duplicate external ids in one snapshot,
// keeping first-seen order and the last payload for each id.
func dedupeContacts(records []client.ContactRecord) []client.ContactRecord {
	index := make(map[string]int, len(records))
	deduped := make([]client.ContactRecord, 0, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		if at, seen := index[record.ID]; seen {
			deduped[at] = record
			continue
		}
		index[record.ID] = len(deduped)
		deduped = append(deduped, record)
	}
	return deduped
}

func dedupeOpportunities(records []client.OpportunityRecord) []client.OpportunityRecord {
	index := make(map[string]int, len(records))
	deduped := make([]client.OpportunityRecord, 0, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		if at, seen := index[record.ID]; seen {
			deduped[at] = record
			continue
		}
		index[record.ID] = len(deduped)
		deduped = append(deduped, record)
	}
	return deduped
}

// reconcileContacts diffs one contact snapshot against local storage and
// applies it in a single transaction. Returns created and updated counts.
func (s *syncService) reconcileContacts(ctx context.Context, records []client.ContactRecord) (int, int, error) {
	records = dedupeContacts(records)
	if len(records) == 0 {
		return 0, 0, nil
	}

	externalIDs := make([]string, 0, len(records))
	for _, record := range records {
		externalIDs = append(externalIDs, record.ID)
	}

	existing, err := s.contacts.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return 0, 0, err
	}
	existingByExternalID := make(map[string]*domain.Contact, len(existing))
	for _, contact := range existing {
		existingByExternalID[contact.ExternalID] = contact
	}

	var creates, updates []*domain.Contact
	for _, record := range records {
		contact := normalizeContact(record)
		if current, ok := existingByExternalID[record.ID]; ok {
			contact.ID = current.ID
			updates = append(updates, &contact)
		} else {
			creates = append(creates, &contact)
		}
	}

	if err := s.contacts.ApplyChanges(ctx, creates, updates); err != nil {
		return 0, 0, err
	}

	s.metrics.AddRecordsReconciled("contacts", "created", len(creates))
	s.metrics.AddRecordsReconciled("contacts", "updated", len(updates))
	return len(creates), len(updates), nil
}

// reconcileOpportunities diffs one opportunity snapshot against local
// storage. Records whose contact cannot be resolved are dropped whole and
// counted; pipeline and stage references degrade to nil instead.
func (s *syncService) reconcileOpportunities(ctx context.Context, records []client.OpportunityRecord) (int, int, int, error) {
	records = dedupeOpportunities(records)
	if len(records) == 0 {
		return 0, 0, 0, nil
	}

	externalIDs := make([]string, 0, len(records))
	contactExternalIDs := make([]string, 0, len(records))
	for _, record := range records {
		externalIDs = append(externalIDs, record.ID)
		if record.ContactID != nil && *record.ContactID != "" {
			contactExternalIDs = append(contactExternalIDs, *record.ContactID)
		}
	}

	contactIDs, err := s.contacts.MapExternalIDs(ctx, contactExternalIDs)
	if err != nil {
		return 0, 0, 0, err
	}
	pipelineIDs, err := s.pipelines.MapPipelineExternalIDs(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	stageIDs, err := s.pipelines.MapStageExternalIDs(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	existing, err := s.opportunities.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return 0, 0, 0, err
	}
	existingByExternalID := make(map[string]*domain.Opportunity, len(existing))
	for _, opportunity := range existing {
		existingByExternalID[opportunity.ExternalID] = opportunity
	}

	var creates, updates []*domain.Opportunity
	dropped := 0
	for _, record := range records {
		contactExternalID := stringOrEmpty(record.ContactID)
		contactID, ok := contactIDs[contactExternalID]
		if !ok {
			dropped++
			s.metrics.IncrementRecordsDropped("opportunities", "missing_contact")
			s.logger.Warn("Dropping opportunity with unresolvable contact",
				zap.String("opportunity_id", record.ID),
				zap.String("contact_id", contactExternalID),
			)
			continue
		}

		var pipelineID, stageID *uuid.UUID
		if record.PipelineID != nil {
			if id, ok := pipelineIDs[*record.PipelineID]; ok {
				pipelineID = &id
			} else {
				s.logger.Warn("Unknown pipeline reference on opportunity",
					zap.String("opportunity_id", record.ID),
					zap.String("pipeline_id", *record.PipelineID),
				)
			}
		}
		if record.PipelineStageID != nil {
			if id, ok := stageIDs[*record.PipelineStageID]; ok {
				stageID = &id
			} else {
				s.logger.Warn("Unknown stage reference on opportunity",
					zap.String("opportunity_id", record.ID),
					zap.String("stage_id", *record.PipelineStageID),
				)
			}
		}

		opportunity := normalizeOpportunity(record, contactID, pipelineID, stageID)
		if current, ok := existingByExternalID[record.ID]; ok {
			opportunity.ID = current.ID
			updates = append(updates, &opportunity)
		} else {
			creates = append(creates, &opportunity)
		}
	}

	if err := s.opportunities.ApplyChanges(ctx, creates, updates); err != nil {
		return 0, 0, 0, err
	}

	s.metrics.AddRecordsReconciled("opportunities", "created", len(creates))
	s.metrics.AddRecordsReconciled("opportunities", "updated", len(updates))
	return len(creates), len(updates), dropped, nil
}
