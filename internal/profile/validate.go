package profile

import (
	"fmt"
	"strings"
)

// Bounds for RiskProfile.ComfortWithVolatility.
const (
	MinVolatilityComfort = 1
	MaxVolatilityComfort = 10
)

// FieldError is one rule violation, addressed by its JSON path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in a profile.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		if p.Path == "" {
			parts[i] = p.Message
			continue
		}
		parts[i] = p.Path + ": " + p.Message
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(path, format string, args ...any) {
	e.Problems = append(e.Problems, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks structural and enum rules. It does not touch Status.
func (p *FinancialProfile) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(p.UserID) == "" {
		verr.add("user_id", "is required")
	}
	if p.Status != "" && !p.Status.Valid() {
		verr.add("status", "unknown value %q", p.Status)
	}

	if p.PersonalInfo == nil {
		verr.add("personal_info", "is required")
	} else {
		pi := p.PersonalInfo
		if pi.MaritalStatus != nil && !pi.MaritalStatus.Valid() {
			verr.add("personal_info.marital_status", "unknown value %q", *pi.MaritalStatus)
		}
		if pi.NumberOfDependents != nil && *pi.NumberOfDependents < 0 {
			verr.add("personal_info.number_of_dependents", "must not be negative")
		}
	}

	if e := p.Employment; e != nil && e.EmploymentStatus != nil && !e.EmploymentStatus.Valid() {
		verr.add("employment.employment_status", "unknown value %q", *e.EmploymentStatus)
	}

	if fp := p.FinancialPosition; fp != nil {
		for i, a := range fp.Assets {
			if strings.TrimSpace(a.AssetType) == "" {
				verr.add(fmt.Sprintf("financial_position.assets[%d].asset_type", i), "is required")
			}
		}
		for i, l := range fp.Liabilities {
			if strings.TrimSpace(l.LiabilityType) == "" {
				verr.add(fmt.Sprintf("financial_position.liabilities[%d].liability_type", i), "is required")
			}
		}
	}

	if g := p.GoalsAndObjectives; g != nil {
		for i, goal := range g.PrimaryGoals {
			path := fmt.Sprintf("goals_and_objectives.primary_goals[%d]", i)
			if strings.TrimSpace(goal.GoalType) == "" {
				verr.add(path+".goal_type", "is required")
			}
			if strings.TrimSpace(goal.Description) == "" {
				verr.add(path+".description", "is required")
			}
			if goal.TimeHorizon != nil && !goal.TimeHorizon.Valid() {
				verr.add(path+".time_horizon", "unknown value %q", *goal.TimeHorizon)
			}
		}
	}

	if r := p.RiskProfile; r != nil {
		if r.RiskAttitude != nil && !r.RiskAttitude.Valid() {
			verr.add("risk_profile.risk_attitude", "unknown value %q", *r.RiskAttitude)
		}
		if v := r.ComfortWithVolatility; v != nil && (*v < MinVolatilityComfort || *v > MaxVolatilityComfort) {
			verr.add("risk_profile.comfort_with_volatility", "must be between %d and %d, got %d",
				MinVolatilityComfort, MaxVolatilityComfort, *v)
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// Revalidate normalises empty collections, validates, and re-derives Status.
// Any status carried in from input, including verified, is replaced.
func (p *FinancialProfile) Revalidate() error {
	p.normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	p.Status = p.Completeness()
	return nil
}

func (p *FinancialProfile) normalize() {
	if p.Dependents == nil {
		p.Dependents = []Dependent{}
	}
	if fp := p.FinancialPosition; fp != nil {
		if fp.Assets == nil {
			fp.Assets = []Asset{}
		}
		if fp.Liabilities == nil {
			fp.Liabilities = []Liability{}
		}
	}
	if g := p.GoalsAndObjectives; g != nil && g.PrimaryGoals == nil {
		g.PrimaryGoals = []FinancialGoal{}
	}
}
