package internal

import (
	"fmt"
	"strconv"
	"time"
)

var (
	commitVersion string = "v0.1.0" // May be updated using build flags
	commitDate    string            // commitDate in Epoch seconds (may be overridden using build flags)
)

// GetVersion returns the version and commit date, if set.
func GetVersion() string {
	seconds, err := strconv.Atoi(commitDate)
	if commitDate != "" && err == nil {
		t := time.Unix(int64(seconds), 0)
		return fmt.Sprintf("%s, date: %s", commitVersion, t.Format("2006-01-02"))
	}
	return commitVersion
}
