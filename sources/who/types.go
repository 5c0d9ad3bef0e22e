package who

import (
	"encoding/json"
	"time"
)

// SourceConfigT describes one extraction from the GHO OData API.
type SourceConfigT struct {
	BaseURL   string
	Indicator string
	// PageSize is the $top value sent per page request.
	PageSize int
	// MaxRows caps the total rows fetched. Zero means no cap.
	MaxRows int
	// Select and Filter map to OData $select / $filter and are passed
	// through untouched.
	Select string
	Filter string
	// SleepBetweenPages throttles pagination against the public API.
	SleepBetweenPages time.Duration
	Timeout           time.Duration
}

// envelopeT is the GHO OData response wrapper. Records stay raw; their
// shape is an upstream contract we do not interpret.
type envelopeT struct {
	Value []json.RawMessage `json:"value"`
}
