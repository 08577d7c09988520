package commitments

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTimestamp resolves a spreadsheet or API timestamp value.
func ParseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrMalformedDate
		}
		return v, nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, ErrMalformedDate
		}
		return *v, nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return time.Time{}, ErrMalformedDate
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedDate, value)
	}
}

// DropStats counts rows removed by the enricher.
type DropStats struct {
	MissingPlant  int
	SentinelPlant int
	MalformedDate int
}

// Total returns the number of dropped rows.
func (s DropStats) Total() int {
	return s.MissingPlant + s.SentinelPlant + s.MalformedDate
}

// EnrichCapacity resolves FECHA into date fields and drops invalid rows.
func EnrichCapacity(records []CapacityRecord) ([]EnrichedCapacity, DropStats) {
	return enrich(records,
		func(r CapacityRecord) string { return r.PlantCode },
		func(r CapacityRecord) any { return r.Date },
		func(r CapacityRecord, fields DateFields) EnrichedCapacity {
			return EnrichedCapacity{CapacityRecord: r, DateFields: fields}
		},
	)
}

// EnrichDispatch resolves FechaHora into date fields and drops invalid rows.
func EnrichDispatch(records []DispatchRecord) ([]EnrichedDispatch, DropStats) {
	return enrich(records,
		func(r DispatchRecord) string { return r.PlantCode },
		func(r DispatchRecord) any { return r.Timestamp },
		func(r DispatchRecord, fields DateFields) EnrichedDispatch {
			return EnrichedDispatch{DispatchRecord: r, DateFields: fields}
		},
	)
}

func enrich[R any, E any](records []R, plant func(R) string, timestamp func(R) any, build func(R, DateFields) E) ([]E, DropStats) {
	var stats DropStats
	result := make([]E, 0, len(records))
	for _, record := range records {
		code := strings.TrimSpace(plant(record))
		if code == "" {
			stats.MissingPlant++
			continue
		}
		if code == SentinelPlantCode {
			stats.SentinelPlant++
			continue
		}
		at, err := ParseTimestamp(timestamp(record))
		if err != nil {
			stats.MalformedDate++
			continue
		}
		result = append(result, build(record, DateFields{
			Year:  at.Year(),
			Month: int(at.Month()),
			Day:   at.Day(),
			Hour:  at.Hour(),
		}))
	}
	return result, stats
}
