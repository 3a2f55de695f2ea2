package model

import "time"

// RunSummary captures metrics from a single derivation run.
type RunSummary struct {
	AssessmentsPath  string
	SubjectsPath     string
	InputSHA256      string
	OutputSHA256     string
	RunID            string
	AlreadyPersisted bool
	RowsRead         int64
	RowsRejected     int64
	Subjects         int
	SubjectsRejected int
	ResponseRecords  int
	BORRecords       int
	EventRecords     int
	Warnings         int
	Errors           int
	FindingsByCode   map[FindingCode]int
	RowsPersisted    int64
	DurationRead     time.Duration
	DurationDerive   time.Duration
	DurationWrite    time.Duration
	DurationPersist  time.Duration
	DurationTotal    time.Duration
}
