package analytics

import "errors"

// Sentinel errors for the analytics core. All fatal failures wrap one of
// these so callers can classify them with errors.Is.
var (
	// ErrMalformedFeed reports a structurally invalid consent-data payload:
	// missing nested keys, no matching provider block, or an empty
	// transaction list.
	ErrMalformedFeed = errors.New("malformed consent-data feed")

	// ErrNumericCoercion reports an amount or balance field that could not
	// be parsed as a decimal. Never silently dropped.
	ErrNumericCoercion = errors.New("non-numeric amount field")

	// ErrUndefinedStatistic reports a division by zero in a statistic that
	// has no explicit zero-guard (balance volatility over a zero-mean
	// balance series). The whole computation fails; no NaN or Inf is ever
	// emitted in a record.
	ErrUndefinedStatistic = errors.New("undefined statistic")
)
