package leadsmoke

import (
	"github.com/google/uuid"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// SampleLead builds a recognizable test lead. The tag is appended to the
// name and carried as smoke_tag so the resulting rows, pages and messages can
// be found downstream.
func SampleLead(tag string) lead.Lead {
	if tag == "" {
		tag = uuid.NewString()
	}
	short := tag
	if len(short) > 8 {
		short = short[:8]
	}
	return lead.FromFields(map[string]any{
		lead.FieldName:        "Imperial Test Client " + short,
		lead.FieldEmail:       "success@9lmnts.studio",
		lead.FieldPlan:        "premium",
		lead.FieldProjectType: "AI Business Empire",
		lead.FieldTimeline:    "Urgent (24h)",
		lead.FieldDescription: "Smoke test of the full lead fan-out.",
		lead.FieldCompany:     "Empire Builders Inc",
		"website":             "https://9lmntsstudio.com",
		"smoke_tag":           tag,
	})
}
