package commitments

import "github.com/shopspring/decimal"

const (
	// DateLayout is the report date format used by APIs and storage.
	DateLayout = "2006-01-02"
	// SentinelPlantCode marks spreadsheet rows that are not plants.
	SentinelPlantCode = "GENERADOR"
	// PriceVariable is the clearing price series used for commitments.
	PriceVariable = "PPBOGReal"
	// VersionRealTime takes precedence over VersionSettlement.
	VersionRealTime = "TXR"
	// VersionSettlement is used when no real-time price exists.
	VersionSettlement = "TX2"
)

// Stage names a pipeline step.
type Stage string

const (
	StageLoadCapacity  Stage = "load_capacity"
	StageFetchDispatch Stage = "fetch_dispatch"
	StageFetchPrice    Stage = "fetch_price"
	StageSelectPrice   Stage = "select_price"
	StageEnrichDates   Stage = "enrich_dates"
	StageAggregate     Stage = "aggregate"
	StageAnnotate      Stage = "annotate"
)

// Operation is the buy/sell classification of a plant-day.
type Operation string

const (
	OperationBuy  Operation = "Buy"
	OperationSell Operation = "Sell"
)

// CapacityRecord is one row of the declared capacity workbook.
type CapacityRecord struct {
	PlantCode  string
	Capacity   any
	Date       any
	Attributes map[string]string
}

// DispatchRecord is one hourly record of the dispatch dataset.
type DispatchRecord struct {
	PlantCode  string
	Timestamp  any
	Value      any
	Attributes map[string]any
}

// PriceRecord is one record of the clearing price dataset.
type PriceRecord struct {
	Variable   string
	Version    string
	Value      any
	Attributes map[string]any
}

// DateFields are the calendar fields derived from a timestamp.
type DateFields struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// EnrichedCapacity is a capacity record with a resolved effective date.
type EnrichedCapacity struct {
	CapacityRecord
	DateFields
}

// EnrichedDispatch is a dispatch record with a resolved timestamp.
type EnrichedDispatch struct {
	DispatchRecord
	DateFields
}

// BalanceKey identifies a plant-day.
type BalanceKey struct {
	Year      int
	Month     int
	Day       int
	PlantCode string
}

// BalanceRow is the consolidated balance of one plant-day.
type BalanceRow struct {
	BalanceKey
	ConsolidatedBalance decimal.Decimal
}

// CommitmentRow is a balance row valued at the day's clearing price.
type CommitmentRow struct {
	BalanceRow
	CommitmentValue decimal.Decimal
	Operation       Operation
}
