package records

import (
	"bytes"
	"errors"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/goccy/go-json"
)

var errMissingDetails = errors.New(`"PersonalDetails" is missing or null`)

// Decode parses a request body into its ordered records. An explicit empty
// PersonalDetails array is valid; a missing or null one is a parse error.
func Decode(body []byte) ([]PersonalDetail, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, core.NewParseError("request body is empty", nil)
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, core.NewParseError("request body is not a valid personal details document", err)
	}

	if envelope.PersonalDetails == nil {
		return nil, core.NewParseError("request body has no personal details", errMissingDetails)
	}

	return *envelope.PersonalDetails, nil
}
