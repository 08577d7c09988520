package commitments

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SelectPrice picks the clearing price for the day. The first TXR record of
// PPBOGReal wins; otherwise the first TX2 record is used.
func SelectPrice(records []PriceRecord) (decimal.Decimal, error) {
	var realTime, settlement *PriceRecord
	for i := range records {
		record := &records[i]
		if record.Variable != PriceVariable {
			continue
		}
		switch record.Version {
		case VersionRealTime:
			if realTime == nil {
				realTime = record
			}
		case VersionSettlement:
			if settlement == nil {
				settlement = record
			}
		}
	}

	selected := realTime
	if selected == nil {
		selected = settlement
	}
	if selected == nil {
		return decimal.Decimal{}, ErrNoPriceFound
	}
	value := ToNumber(selected.Value)
	if !value.Valid {
		return decimal.Decimal{}, fmt.Errorf("%w: non-numeric %s value %v", ErrNoPriceFound, selected.Version, selected.Value)
	}
	return value.Value, nil
}
