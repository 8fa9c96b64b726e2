package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"crm-sync-api/internal/client"
)

// For any input string and width, cleanString returns a trimmed value
// that never exceeds the width in runes and never panics.
func TestProperty_CleanStringIsTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("cleanString trims and bounds any input", prop.ForAll(
		func(input string, maxLen int) bool {
			result := cleanString(&input, maxLen)
			if utf8.RuneCountInString(result) > maxLen {
				return false
			}
			// Truncation may cut mid-word, but the result is always a
			// prefix of the trimmed input.
			return strings.HasPrefix(strings.TrimSpace(input), result)
		},
		gen.AnyString(),
		gen.IntRange(0, 300),
	))

	properties.TestingRun(t)
}

// For any input whatsoever, the numeric coercions return without
// panicking, and parseable numeric strings round-trip exactly.
func TestProperty_NumericCoercionsAreTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("safeFloat round-trips numeric values", prop.ForAll(
		func(value float64) bool {
			result := safeFloat(value)
			return result != nil && *result == value
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("safeFloat and safeInt accept arbitrary strings", prop.ForAll(
		func(input string) bool {
			_ = safeFloat(input)
			_ = safeInt(input)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// For any instant, formatting as RFC3339 and parsing back preserves the
// instant regardless of the timezone conversion.
func TestProperty_ParseTimePreservesInstant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("round-trip through RFC3339 keeps the instant", prop.ForAll(
		func(seconds int64) bool {
			instant := time.Unix(seconds, 0).UTC()
			parsed := parseTime(instant.Format(time.RFC3339))
			return parsed != nil && parsed.Equal(instant)
		},
		gen.Int64Range(0, 4102444800), // through year 2100
	))

	properties.TestingRun(t)
}

// For any contact payload, normalization produces a row that satisfies
// every column bound, whatever the input looks like.
func TestProperty_NormalizeContactRespectsBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("normalized contacts satisfy column bounds", prop.ForAll(
		func(firstName, lastName, phone, country, source string) bool {
			contact := normalizeContact(client.ContactRecord{
				ID:        "ext-prop",
				FirstName: &firstName,
				LastName:  &lastName,
				Phone:     &phone,
				Country:   &country,
				Source:    &source,
			})

			return utf8.RuneCountInString(contact.FirstName) <= maxNameLen &&
				utf8.RuneCountInString(contact.LastName) <= maxNameLen &&
				utf8.RuneCountInString(contact.Phone) <= maxPhoneLen &&
				utf8.RuneCountInString(contact.Country) <= maxCountryLen &&
				utf8.RuneCountInString(contact.Source) <= maxSourceLen &&
				utf8.RuneCountInString(contact.FullNameLowercase) <= maxFullNameLen &&
				contact.Source != "" &&
				// a payload without dates leaves the stamp unresolved
				contact.DateAdded.IsZero()
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
