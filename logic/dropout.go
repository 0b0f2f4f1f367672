package logic

// DropOutFilter hides short bursts of communication failures. A failure is
// surfaced only after maxOccurrences consecutive records; any successful
// exchange resets the count.
type DropOutFilter struct {
	max         int
	occurrences int
	cause       StepStatus
}

// NewDropOutFilter creates a filter that surfaces the n-th consecutive
// failure. n < 1 is treated as 1.
func NewDropOutFilter(n int) *DropOutFilter {
	if n < 1 {
		n = 1
	}
	return &DropOutFilter{max: n, occurrences: n}
}

// Record registers a failure and returns either the failure (once the
// threshold has been reached) or Processing.
func (f *DropOutFilter) Record(ss StepStatus) StepStatus {
	if f.occurrences == f.max {
		f.cause = ss
	}
	f.occurrences--
	if f.occurrences > 0 {
		return Processing
	}
	f.occurrences = f.max
	return f.cause
}

// Reset forgets all recorded failures.
func (f *DropOutFilter) Reset() {
	f.occurrences = f.max
}

// Pending is the number of failures recorded since the last reset.
func (f *DropOutFilter) Pending() int {
	return f.max - f.occurrences
}
