package commitments

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSelectPrice_RealTimeWinsOverSettlement(t *testing.T) {
	records := []PriceRecord{
		{Variable: PriceVariable, Version: VersionSettlement, Value: json.Number("250")},
		{Variable: "PPBOGOther", Version: VersionRealTime, Value: json.Number("999")},
		{Variable: PriceVariable, Version: VersionRealTime, Value: json.Number("300.5")},
		{Variable: PriceVariable, Version: VersionRealTime, Value: json.Number("301")},
	}
	price, err := SelectPrice(records)
	if err != nil {
		t.Fatalf("select price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("300.5")) {
		t.Fatalf("expected first TXR price 300.5, got %s", price)
	}
}

func TestSelectPrice_FallsBackToSettlement(t *testing.T) {
	records := []PriceRecord{
		{Variable: PriceVariable, Version: "TX1", Value: 100.0},
		{Variable: PriceVariable, Version: VersionSettlement, Value: 250.0},
	}
	price, err := SelectPrice(records)
	if err != nil {
		t.Fatalf("select price: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected 250, got %s", price)
	}
}

func TestSelectPrice_NoCandidate(t *testing.T) {
	records := []PriceRecord{
		{Variable: PriceVariable, Version: "TX1", Value: 100.0},
		{Variable: "MaxPrecioOferta", Version: VersionRealTime, Value: 100.0},
	}
	if _, err := SelectPrice(records); !errors.Is(err, ErrNoPriceFound) {
		t.Fatalf("expected ErrNoPriceFound, got %v", err)
	}
	if _, err := SelectPrice(nil); !errors.Is(err, ErrNoPriceFound) {
		t.Fatalf("expected ErrNoPriceFound for empty input, got %v", err)
	}
}

func TestSelectPrice_NonNumericValue(t *testing.T) {
	records := []PriceRecord{{Variable: PriceVariable, Version: VersionRealTime, Value: "n/a"}}
	if _, err := SelectPrice(records); !errors.Is(err, ErrNoPriceFound) {
		t.Fatalf("expected ErrNoPriceFound, got %v", err)
	}
}
