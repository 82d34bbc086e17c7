package config

import "regexp"

const (
	// MaxGroupNameLength is the maximum length for tab group names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxGroupNameLength = 255

	// MaxBulkTabs caps the number of tabs a single bulk request may create.
	// The closure rows written per tab grow with depth, so a request at the
	// depth limit writes up to ten times this many path rows.
	MaxBulkTabs = 500

	// MaxRequestBodyBytes bounds JSON request bodies.
	MaxRequestBodyBytes = 1 << 20
)

// Table prefixes are spliced into SQL, so they are restricted to identifier characters.
var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)
