// Package export renders the registered-user list as a CSV file or a
// standalone HTML report.
//
// The two formats use independent vocabularies: CSV is localized for
// Croatian spreadsheets, HTML is in English. Their label tables are kept
// apart on purpose so that changing one never changes the other.
package export

import (
	"errors"
	"strings"
)

// ErrNoRecords is returned when there are no users to export.
var ErrNoRecords = errors.New("no records to export")

// splitName returns the first whitespace-separated token of name and the
// remaining tokens joined by single spaces.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
