package model

import "time"

// SyncRun is the journaled outcome of one synchronization run.
type SyncRun struct {
	StartedAt         time.Time
	WindowStart       string
	WindowEnd         string
	ID                int64
	Candidates        int
	Added             int
	Duplicates        int
	Updated           int
	IgnoredFuture     int
	BatchSize         int
	SuccessfulBatches int
	FailedBatches     int
	Duration          time.Duration
}
