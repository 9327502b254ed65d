package streamcheck

// Report is the aggregate result of one pass over an endpoint list.
//
// Outcomes holds every outcome in input order. Passing is the subsequence of
// Outcomes that are Online with a latency at or below ThresholdMs, in the
// same relative order. The source ordering is kept on purpose: playlist
// curators order stations by preference, and the report preserves it.
type Report struct {
	// Outcomes is the full outcome sequence, one per probed endpoint.
	Outcomes []Outcome

	// Passing is the filtered subsequence of Outcomes.
	Passing []Outcome

	// ThresholdMs is the latency cutoff the report was built with.
	ThresholdMs int64
}

// Count returns the number of passing endpoints.
func (r Report) Count() int {
	return len(r.Passing)
}

// Summary counts outcomes per status kind.
type Summary struct {
	Total     int `json:"total"`
	Online    int `json:"online"`
	ErrorHTTP int `json:"error_http"`
	Offline   int `json:"offline"`
	Passing   int `json:"passing"`
}

// Summary returns per-kind totals of the report's outcomes.
func (r Report) Summary() Summary {
	s := Summary{Total: len(r.Outcomes), Passing: len(r.Passing)}
	for _, o := range r.Outcomes {
		switch o.Status.Kind() {
		case KindOnline:
			s.Online++
		case KindErrorHTTP:
			s.ErrorHTTP++
		default:
			s.Offline++
		}
	}
	return s
}

// Passes reports whether an outcome belongs in the filtered report:
// it must be Online and its latency must not exceed thresholdMs.
func Passes(o Outcome, thresholdMs int64) bool {
	return o.Status.IsOnline() && o.LatencyMs <= thresholdMs
}

// BuildReport classifies outcomes against thresholdMs.
//
// BuildReport is pure: it copies its input, keeps the input order and
// returns equal reports for equal arguments. A report with no passing
// outcomes is valid and has a Count of zero.
func BuildReport(outcomes []Outcome, thresholdMs int64) Report {
	all := make([]Outcome, len(outcomes))
	copy(all, outcomes)

	passing := make([]Outcome, 0, len(all))
	for _, o := range all {
		if Passes(o, thresholdMs) {
			passing = append(passing, o)
		}
	}

	return Report{
		Outcomes:    all,
		Passing:     passing,
		ThresholdMs: thresholdMs,
	}
}
