package commitments

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func dispatchRow(code string, day, hour int, value any) EnrichedDispatch {
	return EnrichedDispatch{
		DispatchRecord: DispatchRecord{PlantCode: code, Value: value},
		DateFields:     DateFields{Year: 2024, Month: 5, Day: day, Hour: hour},
	}
}

func capacityRow(code string, value any) EnrichedCapacity {
	return EnrichedCapacity{
		CapacityRecord: CapacityRecord{PlantCode: code, Capacity: value},
		DateFields:     DateFields{Year: 2024, Month: 5, Day: 1},
	}
}

func TestAggregate_SumsHourlyBalancePerPlantDay(t *testing.T) {
	dispatch := []EnrichedDispatch{
		dispatchRow("P1", 1, 0, json.Number("30")),
		dispatchRow("P1", 1, 1, json.Number("20")),
	}
	capacity := []EnrichedCapacity{capacityRow("P1", 100.0)}

	rows := Aggregate(dispatch, capacity)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := BalanceKey{Year: 2024, Month: 5, Day: 1, PlantCode: "P1"}
	if rows[0].BalanceKey != want {
		t.Fatalf("key mismatch: got %+v want %+v", rows[0].BalanceKey, want)
	}
	if !rows[0].ConsolidatedBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected 150, got %s", rows[0].ConsolidatedBalance)
	}
}

func TestAggregate_InnerJoinDropsUnmatchedPlants(t *testing.T) {
	dispatch := []EnrichedDispatch{
		dispatchRow("P1", 1, 0, 10.0),
		dispatchRow("P9", 1, 0, 10.0),
	}
	capacity := []EnrichedCapacity{
		capacityRow("P1", 50.0),
		capacityRow("P2", 50.0),
	}
	rows := Aggregate(dispatch, capacity)
	if len(rows) != 1 || rows[0].PlantCode != "P1" {
		t.Fatalf("expected only P1, got %+v", rows)
	}
}

func TestAggregate_UnknownValuesSkippedNotZero(t *testing.T) {
	dispatch := []EnrichedDispatch{
		dispatchRow("P1", 1, 0, 30.0),
		dispatchRow("P1", 1, 1, "sin dato"),
		dispatchRow("P2", 1, 0, 10.0),
	}
	capacity := []EnrichedCapacity{
		capacityRow("P1", 100.0),
		capacityRow("P2", "N/A"),
	}
	rows := Aggregate(dispatch, capacity)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].ConsolidatedBalance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected P1 balance 70 (unknown hour skipped), got %s", rows[0].ConsolidatedBalance)
	}
	if rows[1].PlantCode != "P2" || !rows[1].ConsolidatedBalance.IsZero() {
		t.Fatalf("expected P2 with empty sum, got %+v", rows[1])
	}
}

func TestAggregate_GroupsByDayAndSorts(t *testing.T) {
	dispatch := []EnrichedDispatch{
		dispatchRow("P2", 2, 0, 1.0),
		dispatchRow("P1", 2, 0, 1.0),
		dispatchRow("P1", 1, 23, 1.0),
	}
	capacity := []EnrichedCapacity{capacityRow("P1", 2.0), capacityRow("P2", 2.0)}
	rows := Aggregate(dispatch, capacity)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	order := []BalanceKey{
		{Year: 2024, Month: 5, Day: 1, PlantCode: "P1"},
		{Year: 2024, Month: 5, Day: 2, PlantCode: "P1"},
		{Year: 2024, Month: 5, Day: 2, PlantCode: "P2"},
	}
	for i, key := range order {
		if rows[i].BalanceKey != key {
			t.Fatalf("row %d: got %+v want %+v", i, rows[i].BalanceKey, key)
		}
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	rows := Aggregate(nil, []EnrichedCapacity{capacityRow("P1", 1.0)})
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", rows)
	}
}

func TestFilterInScope(t *testing.T) {
	capacity := []CapacityRecord{{PlantCode: "P1"}, {PlantCode: "P2"}}
	dispatch := []DispatchRecord{{PlantCode: "P1"}, {PlantCode: "P3"}, {PlantCode: "P2"}}
	got := FilterInScope(dispatch, capacity)
	if len(got) != 2 || got[0].PlantCode != "P1" || got[1].PlantCode != "P2" {
		t.Fatalf("unexpected in-scope rows: %+v", got)
	}
}
