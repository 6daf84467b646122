package analytics

// Event names the read path is built around.
const (
	// EventSearchSubmitted is the search submission carrying the filter
	// payload mined by FilterUsage/MineCombinations.
	EventSearchSubmitted = "search_submitted"

	// EventLeadIntent is the thank-you/confirmation view whose properties
	// feed the lead profiler.
	EventLeadIntent = "lead_confirmation_view"

	// EventPageView carries the device context used for device triples.
	EventPageView = "page_view"

	// EventSessionBounced carries the bounce type dimension.
	EventSessionBounced = "session_bounced"
)

// ConversionEvents is the designated conversion-event set for the
// correlator and the conversion rollups.
var ConversionEvents = []string{
	"submitted_contact_form",
	"clicked_whatsapp",
	"clicked_phone",
	"conversion_confirmed",
}
