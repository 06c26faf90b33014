package pac

import (
	"fmt"
	"strings"
)

// Section ids, in the order sections are checked.
const (
	SectionObjective            = "OBJECTIVE"
	SectionExecutionPlan        = "EXECUTION_PLAN"
	SectionRequiredDeliverables = "REQUIRED_DELIVERABLES"
	SectionConstraints          = "CONSTRAINTS"
	SectionSuccessCriteria      = "SUCCESS_CRITERIA"
	SectionDispatch             = "DISPATCH"
	SectionWrapObligation       = "WRAP_OBLIGATION"
	SectionBerObligation        = "BER_OBLIGATION"
	SectionFinalState           = "FINAL_STATE"
)

// PACSchemaViolation is the general validation error; it carries the full
// ordered list of missing sections for generic reporting.
type PACSchemaViolation struct {
	PacID           string
	MissingSections []string
}

func (e *PACSchemaViolation) Error() string {
	return fmt.Sprintf("pac %q: missing sections: %s", e.PacID, strings.Join(e.MissingSections, ", "))
}

// The three "loop closure" sections get dedicated, distinctly
// representable error kinds: downstream terminal emissions enumerate them
// by name and must not see them collapsed into the generic violation.

// MissingWRAPObligation is returned when a PAC omits WRAP_OBLIGATION.
type MissingWRAPObligation struct{ PacID string }

func (e *MissingWRAPObligation) Error() string {
	return fmt.Sprintf("pac %q: missing WRAP_OBLIGATION", e.PacID)
}

// MissingBERObligation is returned when a PAC omits BER_OBLIGATION.
type MissingBERObligation struct{ PacID string }

func (e *MissingBERObligation) Error() string {
	return fmt.Sprintf("pac %q: missing BER_OBLIGATION", e.PacID)
}

// MissingFinalState is returned when a PAC omits FINAL_STATE.
type MissingFinalState struct{ PacID string }

func (e *MissingFinalState) Error() string {
	return fmt.Sprintf("pac %q: missing FINAL_STATE", e.PacID)
}

// InvalidPACID is returned when a pac_id does not match the required
// PAC-{ISSUER}-{MODE}-{LANE}-{NAME}-{NNN} pattern.
type InvalidPACID struct{ PacID string }

func (e *InvalidPACID) Error() string {
	return fmt.Sprintf("pac: invalid pac_id %q", e.PacID)
}
