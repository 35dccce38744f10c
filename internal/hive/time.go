package hive

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control timestamps in assertions.
var timeNow = time.Now

// nowRFC3339 returns the current UTC time in the format every hive
// document uses for timestamps.
func nowRFC3339() string {
	return timeNow().UTC().Format(time.RFC3339)
}
