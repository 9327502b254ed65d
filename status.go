package streamcheck

import (
	"strconv"
	"time"
)

// SentinelLatencyMs is the latency recorded for probes that got no response.
//
// It is a display marker chosen to be worse than any sensible threshold, not
// a measurement. Classification always reads [Status], never this value.
const SentinelLatencyMs int64 = 9999

// Kind identifies which variant a [Status] holds.
type Kind uint8

const (
	// KindOffline means no HTTP response was received: timeout, refused
	// connection, DNS or TLS failure, protocol error or cancellation.
	KindOffline Kind = iota

	// KindOnline means the endpoint answered with a status code below 400.
	KindOnline

	// KindErrorHTTP means the endpoint answered, but with a code of 400 or more.
	KindErrorHTTP
)

// String returns the lower-case name of the kind, suitable for metric labels.
func (k Kind) String() string {
	switch k {
	case KindOnline:
		return "online"
	case KindErrorHTTP:
		return "error_http"
	default:
		return "offline"
	}
}

// Status is the classification of a single probe.
//
// Status is a closed variant: build it with [Online], [ErrorHTTP] or
// [Offline]. The zero value is Offline, so a Status that was never set can
// not be mistaken for a healthy stream. Status values are comparable.
type Status struct {
	kind Kind
	code int
}

// Online returns the status of an endpoint that answered below 400.
func Online() Status {
	return Status{kind: KindOnline}
}

// ErrorHTTP returns the status of an endpoint that answered with code >= 400.
func ErrorHTTP(code int) Status {
	return Status{kind: KindErrorHTTP, code: code}
}

// Offline returns the status of an endpoint that could not be reached.
func Offline() Status {
	return Status{kind: KindOffline}
}

// StatusFromCode classifies an HTTP response code.
// Codes below 400 are Online, everything else is ErrorHTTP.
func StatusFromCode(code int) Status {
	if code < 400 {
		return Online()
	}
	return ErrorHTTP(code)
}

// Kind returns the variant held by the status.
func (s Status) Kind() Kind {
	return s.kind
}

// Code returns the HTTP code carried by an ErrorHTTP status, 0 otherwise.
func (s Status) Code() int {
	if s.kind != KindErrorHTTP {
		return 0
	}
	return s.code
}

// IsOnline reports whether the status is Online.
func (s Status) IsOnline() bool {
	return s.kind == KindOnline
}

// String returns the report label: "Online", "Error <code>" or "Offline".
func (s Status) String() string {
	switch s.kind {
	case KindOnline:
		return "Online"
	case KindErrorHTTP:
		return "Error " + strconv.Itoa(s.code)
	default:
		return "Offline"
	}
}

// MarshalText implements encoding.TextMarshaler using the report label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the classified result of probing one [Endpoint].
//
// Exactly one Outcome is produced per endpoint in a pass. Outcomes are plain
// values and are never modified after the prober returns them.
type Outcome struct {
	// Endpoint is the probed endpoint, unchanged.
	Endpoint Endpoint

	// LatencyMs is the wall-clock time from issuing the request to receiving
	// the response headers. Offline outcomes carry [SentinelLatencyMs].
	LatencyMs int64

	// Status is the classification of the probe.
	Status Status

	// StatusCode is the final HTTP status code after redirects.
	// Zero if no response was received.
	StatusCode int

	// Reason describes why an Offline probe failed. Empty otherwise.
	Reason string

	// CheckedAt is when the probe was issued.
	CheckedAt time.Time
}

// offlineOutcome builds the Offline outcome for ep with the sentinel latency.
func offlineOutcome(ep Endpoint, reason string, at time.Time) Outcome {
	return Outcome{
		Endpoint:  ep,
		LatencyMs: SentinelLatencyMs,
		Status:    Offline(),
		Reason:    reason,
		CheckedAt: at,
	}
}
