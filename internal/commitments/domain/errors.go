package commitments

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrParse is returned when the capacity workbook cannot be read.
	ErrParse = errors.New("commitments: unreadable capacity workbook")
	// ErrNoPriceFound is returned when no TXR/TX2 PPBOGReal price exists for the date.
	ErrNoPriceFound = errors.New("commitments: no valid price found")
	// ErrMalformedDate is returned when a timestamp cannot be parsed.
	ErrMalformedDate = errors.New("commitments: malformed date")
	// ErrEmptyResult is returned when a run yields zero plant-days and the caller requires rows.
	ErrEmptyResult = errors.New("commitments: empty result")
	// ErrMissingConfig is returned when market data settings are incomplete.
	ErrMissingConfig = errors.New("commitments: missing market data configuration")
	// ErrReportNotFound is returned when no stored report exists for a date.
	ErrReportNotFound = errors.New("commitments: report not found")
	// ErrInvalidDate is returned when a zero report date is provided.
	ErrInvalidDate = errors.New("commitments: invalid report date")
)

// UpstreamError describes a failed call to a market data API.
type UpstreamError struct {
	URL        string
	Date       string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("commitments: upstream %s date=%s status=%d: %v", e.URL, e.Date, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("commitments: upstream %s date=%s: %v", e.URL, e.Date, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RunError wraps a pipeline failure with the run date and failing stage.
type RunError struct {
	Date  time.Time
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("reconciliation %s stage=%s: %v", e.Date.Format(DateLayout), e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// RequireRows returns ErrEmptyResult when rows is empty.
func RequireRows(rows []CommitmentRow) error {
	if len(rows) == 0 {
		return ErrEmptyResult
	}
	return nil
}
