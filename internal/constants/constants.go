// Package constants provides named constants used throughout the walkscale codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

import "math"

// Sample-size planning constants
const (
	// MinWalksPerBucket is the floor on independent walks requested for a bucket.
	// It keeps the (n-1) denominator of the standard error well away from zero
	// and short-walk estimates usable.
	MinWalksPerBucket = 500

	// MaxTotalSteps bounds the steps of one walk (bucket size times steps
	// per sample). Larger sweeps are rejected before any int conversion
	// can wrap.
	MaxTotalSteps = math.MaxInt32
)

// Interactive defaults. These seed the first prompt; later prompts start from
// the previous trace's answers.
const (
	// DefaultNumWalksCoef scales sqrt(total steps) into a walk count.
	DefaultNumWalksCoef = 20.0

	// DefaultStartValue is the first bucket size.
	DefaultStartValue = 20

	// DefaultArithmeticStep is the bucket increment for arithmetic sweeps.
	DefaultArithmeticStep = 5

	// DefaultGeometricRatio is the bucket ratio for geometric sweeps.
	DefaultGeometricRatio = 1.1

	// DefaultStepCount is the number of buckets in a sweep.
	DefaultStepCount = 100
)

// Output constants
const (
	// DefaultOutputDir is where plot artifacts are written.
	DefaultOutputDir = "plot"

	// LogLogSuffix is appended to the output name for the log-log artifact.
	LogLogSuffix = "_loglog"

	// EventLogFile is the JSONL event log written at debug level.
	EventLogFile = "events.jsonl"

	// LedgerFile is the SQLite run ledger file name.
	LedgerFile = "walkscale.db"

	// AppDir is the per-user configuration and ledger directory under $HOME.
	AppDir = ".walkscale"
)
