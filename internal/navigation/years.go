// Package navigation maps the year selector to the page it opens.
package navigation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// FieldName is the form field carrying the selected year.
const FieldName = "years"

// Years are the selectable archive years.
var Years = []string{"2018", "2019", "2020", "2021", "2022", "2023"}

// ErrUnknownYear is returned for a non-empty selection outside Years.
var ErrUnknownYear = errors.New("unknown year")

// Target returns the path to navigate to for a selected year. An empty selection is
// a valid no-op: ok is false and err is nil.
func Target(selected string) (path string, ok bool, err error) {
	year := strings.TrimSpace(selected)
	if year == "" {
		return "", false, nil
	}
	if !slices.Contains(Years, year) {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownYear, year)
	}
	return "/" + year, true, nil
}
