package backend

import "time"

type Stats struct {
	ClassRuns int64 `json:"class_runs"`

	// Classes is the number of distinct test classes with at least one run
	Classes int64 `json:"classes"`

	// LatestRun is the creation time of the newest run, zero if there are no runs
	LatestRun time.Time `json:"latest_run"`
}
