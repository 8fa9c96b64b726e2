package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/domain"
)

// Field width limits enforced before any row is written. Oversized CRM
// values are truncated, never rejected.
const (
	maxNameLen     = 100
	maxPhoneLen    = 20
	maxAddressLen  = 255
	maxCountryLen  = 10
	maxSourceLen   = 100
	maxChannelLen  = 50
	maxSourceIDLen = 255
	maxAssignedLen = 150
	maxStatusLen   = 50
	maxFullNameLen = 255
	maxEmailLen    = 255
	maxPipelineLen = 255
)

// defaultSource marks rows that came through the REST sync rather than
// an import file.
const defaultSource = "ghl_api"

// reportingLocation is the timezone all synced timestamps are converted
// into. Loading can only fail with a broken tzdata install, in which
// case UTC keeps the sync running.
var reportingLocation = func() *time.Location {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// cleanString trims whitespace and truncates to maxLen runes. Nil is an
// empty string. Total: never errors regardless of input.
func cleanString(value *string, maxLen int) string {
	if value == nil {
		return ""
	}
	cleaned := strings.TrimSpace(*value)
	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return cleaned
}

// nullableString is cleanString with empty collapsed to nil, for columns
// where absence must stay distinguishable from blank.
func nullableString(value *string, maxLen int) *string {
	cleaned := cleanString(value, maxLen)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// safeFloat coerces an untyped numeric value. Nil, empty string, and
// non-numeric input all map to nil.
func safeFloat(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// safeInt coerces an untyped numeric value. Anything unusable maps to 0.
func safeInt(value interface{}) int {
	f := safeFloat(value)
	if f == nil {
		return 0
	}
	return int(*f)
}

// zonelessLayouts are timestamp shapes the CRM emits without an offset.
// A zoneless value denotes an absolute instant and is read as UTC.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses an ISO-8601 timestamp, or an epoch-millis number,
// into the reporting timezone. Unparseable input maps to nil.
func parseTime(value interface{}) *time.Time {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
			local := t.In(reportingLocation)
			return &local
		}
		for _, layout := range zonelessLayouts {
			if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
				local := t.In(reportingLocation)
				return &local
			}
		}
		return nil
	case float64:
		t := time.UnixMilli(int64(v)).In(reportingLocation)
		return &t
	case int64:
		t := time.UnixMilli(v).In(reportingLocation)
		return &t
	default:
		return nil
	}
}

// stringList coerces a mixed tag list to strings, dropping empties
func stringList(values []interface{}) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		var s string
		if str, ok := value.(string); ok {
			s = strings.TrimSpace(str)
		} else if value != nil {
			s = strings.TrimSpace(fmt.Sprintf("%v", value))
		}
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

// tagsJSON encodes a tag list for the jsonb column. Encoding a string
// slice cannot fail.
func tagsJSON(values []interface{}) datatypes.JSON {
	encoded, _ := json.Marshal(stringList(values))
	return datatypes.JSON(encoded)
}

// tagsText encodes a tag list for plain text columns
func tagsText(values []interface{}) string {
	encoded, _ := json.Marshal(stringList(values))
	return string(encoded)
}

// fullNameLower builds the search column from the cleaned name parts
func fullNameLower(firstName, lastName string) string {
	full := strings.ToLower(strings.TrimSpace(firstName + " " + lastName))
	runes := []rune(full)
	if len(runes) > maxFullNameLen {
		return string(runes[:maxFullNameLen])
	}
	return full
}

// contactCreationTime reads a contact's creation stamp. The detail
// endpoint reports it as dateAdded, the list endpoint as createdAt.
func contactCreationTime(record client.ContactRecord) *time.Time {
	if t := parseTime(record.DateAdded); t != nil {
		return t
	}
	return parseTime(record.CreatedAt)
}

// normalizeContact maps one CRM contact payload onto the local model.
// date_added follows the record's creation time and stays zero when the
// payload omits it, so the writer can keep the stored value on update.
// date_updated is stamped with the sync time so staleness is observable.
func normalizeContact(record client.ContactRecord) domain.Contact {
	firstName := cleanString(record.FirstName, maxNameLen)
	lastName := cleanString(record.LastName, maxNameLen)

	var dateAdded time.Time
	if t := contactCreationTime(record); t != nil {
		dateAdded = *t
	}

	source := cleanString(record.Source, maxSourceLen)
	if source == "" {
		source = defaultSource
	}

	return domain.Contact{
		ExternalID:        record.ID,
		FirstName:         firstName,
		LastName:          lastName,
		FullNameLowercase: fullNameLower(firstName, lastName),
		Email:             nullableString(record.Email, maxEmailLen),
		Phone:             cleanString(record.Phone, maxPhoneLen),
		Address:           cleanString(record.Address, maxAddressLen),
		Country:           cleanString(record.Country, maxCountryLen),
		Tags:              tagsJSON(record.Tags),
		Source:            source,
		DateAdded:         dateAdded,
		DateUpdated:       time.Now().In(reportingLocation),
	}
}

// normalizeOpportunity maps one CRM opportunity payload onto the local
// model. The caller resolves the contact, pipeline, and stage references
// beforehand; pipeline and stage may be nil, contact may not.
// created_timestamp stays zero when the payload omits it, so the writer
// can keep the stored value on update.
func normalizeOpportunity(record client.OpportunityRecord, contactID uuid.UUID, pipelineID, stageID *uuid.UUID) domain.Opportunity {
	var createdTimestamp time.Time
	if t := parseTime(record.CreatedAt); t != nil {
		createdTimestamp = *t
	}

	createdBySource := cleanString(record.Source, maxChannelLen)
	if createdBySource == "" {
		createdBySource = defaultSource
	}

	return domain.Opportunity{
		ExternalID:       record.ID,
		ContactID:        contactID,
		PipelineID:       pipelineID,
		CurrentStageID:   stageID,
		CreatedBySource:  createdBySource,
		CreatedByChannel: defaultSource,
		SourceID:         cleanString(record.Source, maxSourceIDLen),
		Value:            safeFloat(record.MonetaryValue),
		EngagementScore:  safeInt(record.EngagementScore),
		Status:           nullableString(record.Status, maxStatusLen),
		Assigned:         cleanString(record.AssignedTo, maxAssignedLen),
		Tags:             tagsText(record.Tags),
		Description:      strings.TrimSpace(stringOrEmpty(record.Name)),
		Address:          strings.TrimSpace(stringOrEmpty(record.Address)),
		CreatedTimestamp: createdTimestamp,
	}
}

// normalizePipeline maps one CRM pipeline definition, stages included
func normalizePipeline(record client.PipelineRecord) domain.Pipeline {
	dateAdded := parseTime(record.DateAdded)
	if dateAdded == nil {
		nowLocal := time.Now().In(reportingLocation)
		dateAdded = &nowLocal
	}
	dateUpdated := parseTime(record.DateUpdated)
	if dateUpdated == nil {
		dateUpdated = dateAdded
	}

	stages := make([]domain.PipelineStage, 0, len(record.Stages))
	for _, stage := range record.Stages {
		stages = append(stages, domain.PipelineStage{
			ExternalID:     stage.ID,
			Name:           cleanString(&stage.Name, maxPipelineLen),
			Position:       stage.Position,
			ShowInFunnel:   boolOrDefault(stage.ShowInFunnel, true),
			ShowInPieChart: boolOrDefault(stage.ShowInPieChart, true),
		})
	}

	return domain.Pipeline{
		ExternalID:     record.ID,
		Name:           cleanString(&record.Name, maxPipelineLen),
		ShowInFunnel:   boolOrDefault(record.ShowInFunnel, true),
		ShowInPieChart: boolOrDefault(record.ShowInPieChart, true),
		DateAdded:      *dateAdded,
		DateUpdated:    *dateUpdated,
		Stages:         stages,
	}
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
