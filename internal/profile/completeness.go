package profile

// CriticalFieldTotal is the number of fields Completeness inspects.
const CriticalFieldTotal = 8

// partialThreshold is the fraction of critical fields below which a profile
// is partial. Profiles at or above it that are not fully populated are also
// partial, so the cut only matters if a middle tier is ever introduced.
const partialThreshold = 0.7

// CriticalFields counts the populated critical fields. Presence is what
// counts: a recorded income of zero is still a recorded income.
func (p *FinancialProfile) CriticalFields() int {
	var n int
	count := func(ok bool) {
		if ok {
			n++
		}
	}

	count(p.PersonalInfo != nil && p.PersonalInfo.DateOfBirth != nil)

	emp := p.Employment
	count(emp != nil && emp.TotalAnnualIncome != nil)
	count(emp != nil && emp.EmploymentStatus != nil)

	fp := p.FinancialPosition
	count(fp != nil && fp.NetWorth != nil)
	count(fp != nil && fp.MonthlyExpenses != nil)

	goals := p.GoalsAndObjectives
	count(goals != nil && len(goals.PrimaryGoals) > 0)
	count(goals != nil && goals.RetirementAge != nil)

	count(p.RiskProfile != nil && p.RiskProfile.RiskAttitude != nil)

	return n
}

// Completeness derives the profile status from its critical fields.
func (p *FinancialProfile) Completeness() Status {
	return Classify(p.CriticalFields())
}

// Classify maps a critical-field count to a status.
func Classify(present int) Status {
	switch {
	case present <= 0:
		return StatusIncomplete
	case float64(present) < partialThreshold*CriticalFieldTotal:
		return StatusPartial
	case present >= CriticalFieldTotal:
		return StatusComplete
	default:
		return StatusPartial
	}
}
