package profile

import (
	"slices"

	"github.com/invopop/jsonschema"
)

// Status is the coarse completeness of a profile. It is derived, never trusted from input.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusPartial    Status = "partial"
	StatusComplete   Status = "complete"
	StatusVerified   Status = "verified"
)

var Statuses = []Status{StatusIncomplete, StatusPartial, StatusComplete, StatusVerified}

type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentSelfEmployed EmploymentStatus = "self_employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentStudent      EmploymentStatus = "student"
)

var EmploymentStatuses = []EmploymentStatus{
	EmploymentEmployed, EmploymentSelfEmployed, EmploymentUnemployed, EmploymentRetired, EmploymentStudent,
}

type MaritalStatus string

const (
	MaritalSingle           MaritalStatus = "single"
	MaritalMarried          MaritalStatus = "married"
	MaritalCivilPartnership MaritalStatus = "civil_partnership"
	MaritalDivorced         MaritalStatus = "divorced"
	MaritalWidowed          MaritalStatus = "widowed"
)

var MaritalStatuses = []MaritalStatus{
	MaritalSingle, MaritalMarried, MaritalCivilPartnership, MaritalDivorced, MaritalWidowed,
}

type RiskAttitude string

const (
	RiskVeryLow  RiskAttitude = "very_low"
	RiskLow      RiskAttitude = "low"
	RiskMedium   RiskAttitude = "medium"
	RiskHigh     RiskAttitude = "high"
	RiskVeryHigh RiskAttitude = "very_high"
)

var RiskAttitudes = []RiskAttitude{RiskVeryLow, RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// TimeHorizon buckets: short < 3 years, medium 3-10 years, long > 10 years.
type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "short_term"
	HorizonMedium TimeHorizon = "medium_term"
	HorizonLong   TimeHorizon = "long_term"
)

var TimeHorizons = []TimeHorizon{HorizonShort, HorizonMedium, HorizonLong}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }
func (s EmploymentStatus) Valid() bool { return slices.Contains(EmploymentStatuses, s) }
func (s MaritalStatus) Valid() bool { return slices.Contains(MaritalStatuses, s) }
func (s RiskAttitude) Valid() bool { return slices.Contains(RiskAttitudes, s) }
func (s TimeHorizon) Valid() bool { return slices.Contains(TimeHorizons, s) }

// The JSONSchema methods render enum sets from the same slices Valid checks,
// so the prompt schema and the validator cannot disagree.

func (Status) JSONSchema() *jsonschema.Schema { return enumSchema(Statuses) }
func (EmploymentStatus) JSONSchema() *jsonschema.Schema { return enumSchema(EmploymentStatuses) }
func (MaritalStatus) JSONSchema() *jsonschema.Schema { return enumSchema(MaritalStatuses) }
func (RiskAttitude) JSONSchema() *jsonschema.Schema { return enumSchema(RiskAttitudes) }
func (TimeHorizon) JSONSchema() *jsonschema.Schema { return enumSchema(TimeHorizons) }

func enumSchema[T ~string](values []T) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}
