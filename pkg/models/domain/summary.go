package domain

import "time"

// RunSummary describes one run that ended with the slips emailed.
type RunSummary struct {
	Date       string
	Slips      int
	Recipients []string
	MessageID  string
	Elapsed    time.Duration
}
