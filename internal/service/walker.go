package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"crm-sync-api/internal/client"
)

const (
	// pageSize is the maximum page size the CRM list endpoints allow
	pageSize = 100
	// maxSyncPages bounds a single walk against cursor loops upstream
	maxSyncPages = 1000
	// pageDelay spaces successive page requests
	pageDelay = 100 * time.Millisecond
)

// extractCursorTimestamp derives the startAfter cursor from the last
// record of a page, trying each timestamp field in order. Values arrive
// as ISO strings or epoch-millis numbers depending on the endpoint.
func extractCursorTimestamp(candidates ...interface{}) *int64 {
	for _, candidate := range candidates {
		switch v := candidate.(type) {
		case string:
			if v == "" {
				continue
			}
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				millis := t.UnixMilli()
				return &millis
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				millis := int64(f)
				return &millis
			}
		case float64:
			millis := int64(v)
			return &millis
		case int64:
			return &v
		}
	}
	return nil
}

// waitBetweenPages sleeps the inter-page delay unless the context ends first
func waitBetweenPages(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pageDelay):
		return nil
	}
}

// fetchAllContacts walks the full contacts collection. Any transport or
// API error aborts the walk; a partial snapshot is never reconciled.
func (s *syncService) fetchAllContacts(ctx context.Context, accessToken, locationID string) ([]client.ContactRecord, error) {
	var all []client.ContactRecord
	var cursor client.Cursor

	for page := 1; ; page++ {
		if page > maxSyncPages {
			s.logger.Warn("Stopping contact walk at page ceiling",
				zap.Int("pages", maxSyncPages),
				zap.Int("records", len(all)),
			)
			break
		}

		records, total, err := s.crm.FetchContactsPage(ctx, accessToken, locationID, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		s.metrics.IncrementPagesFetched("contacts")

		if len(records) == 0 {
			break
		}
		all = append(all, records...)
		s.logger.Debug("Fetched contact page",
			zap.Int("page", page),
			zap.Int("page_records", len(records)),
			zap.Int("total_records", len(all)),
		)

		last := records[len(records)-1]
		cursor = client.Cursor{
			StartAfter:   extractCursorTimestamp(last.DateAdded, last.CreatedAt, last.UpdatedAt),
			StartAfterID: last.ID,
		}

		if total > 0 && len(all) >= total {
			break
		}
		if len(records) < pageSize {
			break
		}
		if err := waitBetweenPages(ctx); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// fetchAllOpportunities walks the full opportunity search, with the same
// abort-on-error contract as the contact walk.
func (s *syncService) fetchAllOpportunities(ctx context.Context, accessToken, locationID string) ([]client.OpportunityRecord, error) {
	var all []client.OpportunityRecord
	var cursor client.Cursor

	for page := 1; ; page++ {
		if page > maxSyncPages {
			s.logger.Warn("Stopping opportunity walk at page ceiling",
				zap.Int("pages", maxSyncPages),
				zap.Int("records", len(all)),
			)
			break
		}

		records, total, err := s.crm.FetchOpportunitiesPage(ctx, accessToken, locationID, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		s.metrics.IncrementPagesFetched("opportunities")

		if len(records) == 0 {
			break
		}
		all = append(all, records...)
		s.logger.Debug("Fetched opportunity page",
			zap.Int("page", page),
			zap.Int("page_records", len(records)),
			zap.Int("total_records", len(all)),
		)

		last := records[len(records)-1]
		cursor = client.Cursor{
			StartAfter:   extractCursorTimestamp(last.DateAdded, last.CreatedAt, last.UpdatedAt),
			StartAfterID: last.ID,
		}

		if total > 0 && len(all) >= total {
			break
		}
		if len(records) < pageSize {
			break
		}
		if err := waitBetweenPages(ctx); err != nil {
			return nil, err
		}
	}

	return all, nil
}
