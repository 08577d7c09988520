package commitments

import "github.com/shopspring/decimal"

var thousand = decimal.NewFromInt(1000)

// CommitmentValue converts a consolidated balance to money at the given price.
func CommitmentValue(balance, price decimal.Decimal) decimal.Decimal {
	return balance.Mul(price).Div(thousand)
}

// OperationFor classifies a commitment value: negative buys, otherwise sells.
func OperationFor(value decimal.Decimal) Operation {
	if value.IsNegative() {
		return OperationBuy
	}
	return OperationSell
}

// Annotate values every balance row at the single price of the run.
func Annotate(rows []BalanceRow, price decimal.Decimal) []CommitmentRow {
	result := make([]CommitmentRow, 0, len(rows))
	for _, row := range rows {
		value := CommitmentValue(row.ConsolidatedBalance, price)
		result = append(result, CommitmentRow{
			BalanceRow:      row,
			CommitmentValue: value,
			Operation:       OperationFor(value),
		})
	}
	return result
}

// CountOperations returns the number of buy and sell rows.
func CountOperations(rows []CommitmentRow) (buys, sells int) {
	for _, row := range rows {
		if row.Operation == OperationBuy {
			buys++
			continue
		}
		sells++
	}
	return buys, sells
}
