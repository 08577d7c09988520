package commitments

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PlantCodes returns the set of plant codes present in the capacity table.
func PlantCodes(capacity []CapacityRecord) map[string]struct{} {
	codes := make(map[string]struct{}, len(capacity))
	for _, record := range capacity {
		codes[record.PlantCode] = struct{}{}
	}
	return codes
}

// FilterInScope keeps dispatch records whose plant is declared in capacity.
func FilterInScope(dispatch []DispatchRecord, capacity []CapacityRecord) []DispatchRecord {
	codes := PlantCodes(capacity)
	result := make([]DispatchRecord, 0, len(dispatch))
	for _, record := range dispatch {
		if _, ok := codes[record.PlantCode]; ok {
			result = append(result, record)
		}
	}
	return result
}

// Aggregate joins dispatch to capacity on plant code and sums
// capacity - dispatched per plant-day. Unknown values are skipped in the sum.
func Aggregate(dispatch []EnrichedDispatch, capacity []EnrichedCapacity) []BalanceRow {
	declared := make(map[string][]Number, len(capacity))
	for _, record := range capacity {
		declared[record.PlantCode] = append(declared[record.PlantCode], ToNumber(record.Capacity))
	}

	sums := make(map[BalanceKey]decimal.Decimal)
	for _, record := range dispatch {
		capacities, ok := declared[record.PlantCode]
		if !ok {
			continue
		}
		key := BalanceKey{
			Year:      record.Year,
			Month:     record.Month,
			Day:       record.Day,
			PlantCode: record.PlantCode,
		}
		sum := sums[key]
		dispatched := ToNumber(record.Value)
		for _, capacityValue := range capacities {
			hourly := capacityValue.Sub(dispatched)
			if hourly.Valid {
				sum = sum.Add(hourly.Value)
			}
		}
		sums[key] = sum
	}

	rows := make([]BalanceRow, 0, len(sums))
	for key, sum := range sums {
		rows = append(rows, BalanceRow{BalanceKey: key, ConsolidatedBalance: sum})
	}
	sortBalanceRows(rows)
	return rows
}

func sortBalanceRows(rows []BalanceRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].BalanceKey.less(rows[j].BalanceKey)
	})
}

func (k BalanceKey) less(other BalanceKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	return k.PlantCode < other.PlantCode
}
