package utils

import "strconv"

// -----------------------------------------------------------------------------

// Viewer limits and defaults. Config falls back to these when a field is
// left empty.
const (
	DefaultMaxSeries       = 4
	DefaultMaxPoints       = 50
	DefaultBaselineSamples = 5
	DefaultGainMin         = 1
	DefaultGainMax         = 200
	DefaultGain            = 100
	DefaultMessageLogSize  = 200
	DefaultMessageView     = 50
)

// Transport and presign timings.
const (
	DefaultConnectTimeoutMs  = 30_000
	DefaultReconnectPeriodMs = 3_000
	DefaultExpiresSeconds    = 15 * 60
	DefaultEventQueueSize    = 256
	DefaultJournalQueueSize  = 128
	DefaultClientIDPrefix    = "web-"
	DefaultTopic             = "devices/test_0914/telemetry"
)

// -----------------------------------------------------------------------------

// DefaultLabel names series k (zero based) when the payload carries no key.
func DefaultLabel(k int) string {
	return "v" + strconv.Itoa(k+1)
}
