package pac

import "regexp"

var pacIDPattern = regexp.MustCompile(`(?i)^PAC-[A-Z]+-[A-Z]+-[A-Z]+-[A-Z0-9-]+-\d{3}$`)

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid           bool
	PacID           string
	MissingSections []string
	Errors          []string
}

// missingSections returns, in checked order, the section ids that are
// absent or empty. Validation is a pure function of p: no I/O, no clock.
func missingSections(p *PAC) []string {
	var missing []string

	if p.Objective == "" {
		missing = append(missing, SectionObjective)
	}
	if p.ExecutionPlan == "" {
		missing = append(missing, SectionExecutionPlan)
	}
	if len(p.RequiredDeliverables) == 0 {
		missing = append(missing, SectionRequiredDeliverables)
	}
	if len(p.Constraints) == 0 {
		missing = append(missing, SectionConstraints)
	}
	if len(p.SuccessCriteria) == 0 {
		missing = append(missing, SectionSuccessCriteria)
	}
	if p.Dispatch.TargetIdentity == "" || p.Dispatch.Mode == "" || p.Dispatch.Lane == "" {
		missing = append(missing, SectionDispatch)
	}
	if p.WrapObligation == "" {
		missing = append(missing, SectionWrapObligation)
	}
	if p.BerObligation == "" {
		missing = append(missing, SectionBerObligation)
	}
	if p.FinalState == "" {
		missing = append(missing, SectionFinalState)
	}

	return missing
}

func contains(sections []string, target string) bool {
	for _, s := range sections {
		if s == target {
			return true
		}
	}
	return false
}

// Validate checks p against the PAC schema and returns a ValidationResult
// enumerating every missing section. Validation never mutates p and never
// performs I/O.
func Validate(p *PAC) ValidationResult {
	result := ValidationResult{PacID: p.PacID}

	if !pacIDPattern.MatchString(p.PacID) {
		result.Errors = append(result.Errors, (&InvalidPACID{PacID: p.PacID}).Error())
	}

	result.MissingSections = missingSections(p)
	result.Valid = len(result.MissingSections) == 0 && len(result.Errors) == 0

	for _, section := range result.MissingSections {
		result.Errors = append(result.Errors, "missing section: "+section)
	}

	return result
}

// ValidateAndRaise runs Validate and, if invalid, fails immediately with
// the most specific applicable error: InvalidPACID, then the first
// loop-closure violation found among WRAP_OBLIGATION, BER_OBLIGATION, and
// FINAL_STATE, in that order. A generic PACSchemaViolation is returned for
// any other missing section.
func ValidateAndRaise(p *PAC) (ValidationResult, error) {
	result := Validate(p)
	if result.Valid {
		return result, nil
	}

	if !pacIDPattern.MatchString(p.PacID) {
		return result, &InvalidPACID{PacID: p.PacID}
	}

	if contains(result.MissingSections, SectionWrapObligation) {
		return result, &MissingWRAPObligation{PacID: p.PacID}
	}
	if contains(result.MissingSections, SectionBerObligation) {
		return result, &MissingBERObligation{PacID: p.PacID}
	}
	if contains(result.MissingSections, SectionFinalState) {
		return result, &MissingFinalState{PacID: p.PacID}
	}

	return result, &PACSchemaViolation{PacID: p.PacID, MissingSections: result.MissingSections}
}
