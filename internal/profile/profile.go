// Package profile defines the financial fact-find captured for each client,
// its validation rules and the completeness status derived from it.
package profile

import (
	"encoding/json"
	"time"
)

// DefaultCountry is assumed for addresses when the country is not given.
const DefaultCountry = "United Kingdom"

// FinancialProfile is the root document, one per client, keyed by UserID.
// It covers hard facts (personal, employment, financial position) and soft
// facts (goals, risk attitude).
type FinancialProfile struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id" jsonschema:"required"`
	Status           Status     `json:"status"`
	CreatedAt        *Timestamp `json:"created_at"`
	UpdatedAt        *Timestamp `json:"updated_at"`
	LastReviewedDate *Timestamp `json:"last_reviewed_date"`

	PersonalInfo      *PersonalInfo      `json:"personal_info" jsonschema:"required"`
	Dependents        []Dependent        `json:"dependents"`
	Employment        *EmploymentDetails `json:"employment"`
	FinancialPosition *FinancialPosition `json:"financial_position"`

	GoalsAndObjectives  *GoalsAndObjectives `json:"goals_and_objectives"`
	RiskProfile         *RiskProfile        `json:"risk_profile"`
	HealthAndProtection *HealthInfo         `json:"health_and_protection"`

	Notes        *string `json:"notes"`
	AdvisorNotes *string `json:"advisor_notes"`
}

type PersonalInfo struct {
	Title                   *string        `json:"title"`
	FirstName               *string        `json:"first_name"`
	MiddleName              *string        `json:"middle_name"`
	LastName                *string        `json:"last_name"`
	DateOfBirth             *Date          `json:"date_of_birth"`
	NationalInsuranceNumber *string        `json:"national_insurance_number"`
	MaritalStatus           *MaritalStatus `json:"marital_status"`
	NumberOfDependents      *int           `json:"number_of_dependents"`

	Email *string `json:"email"`
	Phone *string `json:"phone"`

	AddressLine1 *string `json:"address_line_1"`
	AddressLine2 *string `json:"address_line_2"`
	City         *string `json:"city"`
	Postcode     *string `json:"postcode"`
	Country      *string `json:"country"`
}

// UnmarshalJSON applies field defaults for keys absent from the input.
// An explicit null still clears the field.
func (p *PersonalInfo) UnmarshalJSON(b []byte) error {
	type plain PersonalInfo
	v := plain{NumberOfDependents: ptr(0), Country: ptr(DefaultCountry)}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PersonalInfo(v)
	return nil
}

type Dependent struct {
	Name                 *string `json:"name"`
	Relationship         *string `json:"relationship" jsonschema_description:"child, parent, etc."`
	DateOfBirth          *Date   `json:"date_of_birth"`
	FinanciallyDependent bool    `json:"financially_dependent"`
	Notes                *string `json:"notes"`
}

func (d *Dependent) UnmarshalJSON(b []byte) error {
	type plain Dependent
	v := plain{FinanciallyDependent: true}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Dependent(v)
	return nil
}

type EmploymentDetails struct {
	EmploymentStatus   *EmploymentStatus `json:"employment_status"`
	EmployerName       *string           `json:"employer_name"`
	JobTitle           *string           `json:"job_title"`
	Industry           *string           `json:"industry"`
	YearsInCurrentRole *float64          `json:"years_in_current_role"`

	AnnualSalary      *float64 `json:"annual_salary"`
	BonusIncome       *float64 `json:"bonus_income"`
	DividendIncome    *float64 `json:"dividend_income"`
	RentalIncome      *float64 `json:"rental_income"`
	PensionIncome     *float64 `json:"pension_income"`
	OtherIncome       *float64 `json:"other_income"`
	TotalAnnualIncome *float64 `json:"total_annual_income"`

	TaxCode            *string `json:"tax_code"`
	ExpectedTaxBracket *string `json:"expected_tax_bracket" jsonschema_description:"basic, higher or additional"`
}

type Asset struct {
	AssetType           string   `json:"asset_type" jsonschema:"required" jsonschema_description:"property, ISA, pension, savings, investments, etc."`
	Description         *string  `json:"description"`
	CurrentValue        *float64 `json:"current_value"`
	MonthlyContribution *float64 `json:"monthly_contribution"`
	Provider            *string  `json:"provider"`
	AccountNumber       *string  `json:"account_number"`
	Notes               *string  `json:"notes"`
}

type Liability struct {
	LiabilityType       string   `json:"liability_type" jsonschema:"required" jsonschema_description:"mortgage, loan, credit card, etc."`
	Description         *string  `json:"description"`
	OutstandingBalance  *float64 `json:"outstanding_balance"`
	MonthlyPayment      *float64 `json:"monthly_payment"`
	InterestRate        *float64 `json:"interest_rate"`
	Lender              *string  `json:"lender"`
	TermRemainingMonths *int     `json:"term_remaining_months"`
	Notes               *string  `json:"notes"`
}

type MonthlyExpenses struct {
	HousingMortgageRent  *float64 `json:"housing_mortgage_rent"`
	Utilities            *float64 `json:"utilities"`
	Groceries            *float64 `json:"groceries"`
	Transport            *float64 `json:"transport"`
	Insurance            *float64 `json:"insurance"`
	Childcare            *float64 `json:"childcare"`
	Entertainment        *float64 `json:"entertainment"`
	Subscriptions        *float64 `json:"subscriptions"`
	Other                *float64 `json:"other"`
	TotalMonthlyExpenses *float64 `json:"total_monthly_expenses"`
}

// FinancialPosition totals are informational; nothing here recomputes them.
type FinancialPosition struct {
	Assets          []Asset          `json:"assets"`
	Liabilities     []Liability      `json:"liabilities"`
	MonthlyExpenses *MonthlyExpenses `json:"monthly_expenses"`

	TotalAssets      *float64 `json:"total_assets"`
	TotalLiabilities *float64 `json:"total_liabilities"`
	NetWorth         *float64 `json:"net_worth"`
	MonthlySurplus   *float64 `json:"monthly_surplus"`
}

type FinancialGoal struct {
	GoalType     string       `json:"goal_type" jsonschema:"required" jsonschema_description:"retirement, property, education, emergency fund, etc."`
	Description  string       `json:"description" jsonschema:"required"`
	TargetAmount *float64     `json:"target_amount"`
	TargetDate   *Date        `json:"target_date"`
	Priority     *int         `json:"priority" jsonschema_description:"1 is the highest priority"`
	TimeHorizon  *TimeHorizon `json:"time_horizon"`
	Notes        *string      `json:"notes"`
}

type GoalsAndObjectives struct {
	PrimaryGoals            []FinancialGoal `json:"primary_goals"`
	RetirementAge           *int            `json:"retirement_age"`
	DesiredRetirementIncome *float64        `json:"desired_retirement_income"`
	LegacyWishes            *string         `json:"legacy_wishes"`
	CharityIntentions       *string         `json:"charity_intentions"`
}

type RiskProfile struct {
	RiskAttitude             *RiskAttitude `json:"risk_attitude"`
	CapacityForLoss          *string       `json:"capacity_for_loss" jsonschema_description:"description of financial resilience"`
	InvestmentExperience     *string       `json:"investment_experience" jsonschema_description:"none, limited, experienced or sophisticated"`
	InvestmentKnowledgeLevel *string       `json:"investment_knowledge_level" jsonschema_description:"low, medium or high"`

	ComfortWithVolatility *int    `json:"comfort_with_volatility" jsonschema:"minimum=1,maximum=10"`
	NeedForAccessToFunds  *string `json:"need_for_access_to_funds"`
	EthicalPreferences    *string `json:"ethical_preferences" jsonschema_description:"ESG preferences"`

	RiskScore             *int       `json:"risk_score"`
	RiskQuestionnaireDate *Timestamp `json:"risk_questionnaire_date"`
	Notes                 *string    `json:"notes"`
}

type HealthInfo struct {
	Smoker                    *bool    `json:"smoker"`
	HealthConditions          *string  `json:"health_conditions"`
	LifeInsuranceCoverage     *float64 `json:"life_insurance_coverage"`
	CriticalIllnessCoverage   *float64 `json:"critical_illness_coverage"`
	IncomeProtectionCoverage  *float64 `json:"income_protection_coverage"`
	HasWill                   *bool    `json:"has_will"`
	HasLastingPowerOfAttorney *bool    `json:"has_lasting_power_of_attorney"`
}

// NewStub returns the minimal profile created through the API: a name at
// most, every optional section empty.
func NewStub(userID string, firstName, lastName *string) *FinancialProfile {
	return &FinancialProfile{
		ID:     userID,
		UserID: userID,
		Status: StatusIncomplete,
		PersonalInfo: &PersonalInfo{
			FirstName: firstName,
			LastName:  lastName,
			Country:   ptr(DefaultCountry),
		},
		Dependents: []Dependent{},
	}
}

// DisplayName joins whichever name parts are known.
func (p *FinancialProfile) DisplayName() string {
	if p.PersonalInfo == nil {
		return ""
	}
	var name string
	for _, part := range []*string{p.PersonalInfo.FirstName, p.PersonalInfo.LastName} {
		if part == nil || *part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += *part
	}
	return name
}

// Stamp sets the document id and lifecycle timestamps. CreatedAt is kept if already set.
func (p *FinancialProfile) Stamp(now time.Time) {
	p.ID = p.UserID
	if p.CreatedAt == nil {
		p.CreatedAt = NewTimestamp(now)
	}
	p.UpdatedAt = NewTimestamp(now)
}

func ptr[T any](v T) *T { return &v }
