package sanitize

// DefaultEntities is the healthcare-relevant entity catalog searched when a
// request does not name specific entity types.
var DefaultEntities = []string{
	"PERSON",
	"EMAIL_ADDRESS",
	"PHONE_NUMBER",
	"DATE_TIME",
	"LOCATION",
	"US_SSN",
	"CREDIT_CARD",
	"IP_ADDRESS",
	"URL",
	"US_DRIVER_LICENSE",
	"MEDICAL_LICENSE",
}

// Select resolves the effective entity types for a request: a non-empty
// requested list is returned unchanged (unknown names are allowed and simply
// yield zero matches from the engine), otherwise the default catalog.
func Select(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return DefaultEntities
}
