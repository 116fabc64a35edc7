package extractor

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

func ptr[T any](v T) *T { return &v }

func fullProfile() *profile.FinancialProfile {
	dob := profile.NewDate(1980, time.May, 17)
	childDOB := profile.NewDate(2012, time.September, 3)
	target := profile.NewDate(2040, time.January, 1)
	status := profile.EmploymentEmployed
	marital := profile.MaritalMarried
	attitude := profile.RiskMedium
	horizon := profile.HorizonLong

	p := &profile.FinancialProfile{
		ID:               "u42",
		UserID:           "u42",
		CreatedAt:        profile.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)),
		UpdatedAt:        profile.NewTimestamp(time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC)),
		LastReviewedDate: profile.NewTimestamp(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
		PersonalInfo: &profile.PersonalInfo{
			Title:                   ptr("Mrs"),
			FirstName:               ptr("Zoë"),
			MiddleName:              ptr("Anne"),
			LastName:                ptr("Brontë"),
			DateOfBirth:             &dob,
			NationalInsuranceNumber: ptr("QQ123456C"),
			MaritalStatus:           &marital,
			NumberOfDependents:      ptr(1),
			Email:                   ptr("zoe@example.com"),
			Phone:                   ptr("07700900123"),
			AddressLine1:            ptr("1 High Street"),
			AddressLine2:            ptr("Flat 2"),
			City:                    ptr("Leeds"),
			Postcode:                ptr("LS1 1AA"),
			Country:                 ptr("United Kingdom"),
		},
		Dependents: []profile.Dependent{{
			Name:                 ptr("Tom"),
			Relationship:         ptr("child"),
			DateOfBirth:          &childDOB,
			FinanciallyDependent: true,
			Notes:                ptr("at school"),
		}},
		Employment: &profile.EmploymentDetails{
			EmploymentStatus:   &status,
			EmployerName:       ptr("Acme Ltd"),
			JobTitle:           ptr("Engineer"),
			Industry:           ptr("Manufacturing"),
			YearsInCurrentRole: ptr(4.5),
			AnnualSalary:       ptr(62000.0),
			BonusIncome:        ptr(5000.0),
			DividendIncome:     ptr(250.75),
			RentalIncome:       ptr(0.0),
			PensionIncome:      ptr(0.0),
			OtherIncome:        ptr(120.0),
			TotalAnnualIncome:  ptr(67370.75),
			TaxCode:            ptr("1257L"),
			ExpectedTaxBracket: ptr("higher"),
		},
		FinancialPosition: &profile.FinancialPosition{
			Assets: []profile.Asset{{
				AssetType:           "pension",
				Description:         ptr("Workplace scheme"),
				CurrentValue:        ptr(85000.0),
				MonthlyContribution: ptr(400.0),
				Provider:            ptr("Aviva"),
				AccountNumber:       ptr("P-001"),
				Notes:               ptr("matched 5%"),
			}},
			Liabilities: []profile.Liability{{
				LiabilityType:       "mortgage",
				Description:         ptr("Repayment"),
				OutstandingBalance:  ptr(180000.0),
				MonthlyPayment:      ptr(950.0),
				InterestRate:        ptr(4.25),
				Lender:              ptr("Nationwide"),
				TermRemainingMonths: ptr(240),
				Notes:               ptr("fixed until 2026"),
			}},
			MonthlyExpenses: &profile.MonthlyExpenses{
				HousingMortgageRent:  ptr(950.0),
				Utilities:            ptr(180.0),
				Groceries:            ptr(400.0),
				Transport:            ptr(150.0),
				Insurance:            ptr(60.0),
				Childcare:            ptr(300.0),
				Entertainment:        ptr(100.0),
				Subscriptions:        ptr(35.5),
				Other:                ptr(50.0),
				TotalMonthlyExpenses: ptr(2225.5),
			},
			TotalAssets:      ptr(85000.0),
			TotalLiabilities: ptr(180000.0),
			NetWorth:         ptr(-95000.0),
			MonthlySurplus:   ptr(1200.0),
		},
		GoalsAndObjectives: &profile.GoalsAndObjectives{
			PrimaryGoals: []profile.FinancialGoal{{
				GoalType:     "retirement",
				Description:  "Retire at 60",
				TargetAmount: ptr(500000.0),
				TargetDate:   &target,
				Priority:     ptr(1),
				TimeHorizon:  &horizon,
				Notes:        ptr("flexible"),
			}},
			RetirementAge:           ptr(60),
			DesiredRetirementIncome: ptr(30000.0),
			LegacyWishes:            ptr("house to Tom"),
			CharityIntentions:       ptr("none"),
		},
		RiskProfile: &profile.RiskProfile{
			RiskAttitude:             &attitude,
			CapacityForLoss:          ptr("moderate"),
			InvestmentExperience:     ptr("limited"),
			InvestmentKnowledgeLevel: ptr("medium"),
			ComfortWithVolatility:    ptr(6),
			NeedForAccessToFunds:     ptr("low"),
			EthicalPreferences:       ptr("avoid tobacco"),
			RiskScore:                ptr(55),
			RiskQuestionnaireDate:    profile.NewTimestamp(time.Date(2024, 1, 15, 9, 45, 0, 0, time.UTC)),
			Notes:                    ptr("questionnaire v2"),
		},
		HealthAndProtection: &profile.HealthInfo{
			Smoker:                    ptr(false),
			HealthConditions:          ptr("asthma"),
			LifeInsuranceCoverage:     ptr(250000.0),
			CriticalIllnessCoverage:   ptr(50000.0),
			IncomeProtectionCoverage:  ptr(2000.0),
			HasWill:                   ptr(true),
			HasLastingPowerOfAttorney: ptr(false),
		},
		Notes:        ptr("Prefers email"),
		AdvisorNotes: ptr("Review pension in Q3"),
	}
	return p
}

func TestParseProfile_RoundTrip(t *testing.T) {
	want := fullProfile()
	if err := want.Revalidate(); err != nil {
		t.Fatalf("fixture does not validate: %v", err)
	}
	if want.Status != profile.StatusComplete {
		t.Fatalf("expected fixture to be complete, got %q", want.Status)
	}

	encoded, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ParseProfile("```json\n" + string(encoded) + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		again, _ := json.Marshal(got)
		t.Errorf("round trip changed the profile\nwant %s\ngot  %s", encoded, again)
	}
	if !got.CreatedAt.Equal(want.CreatedAt.Time) || got.CreatedAt.Nanosecond() != 123456789 {
		t.Errorf("created_at lost precision: %v", got.CreatedAt)
	}
	if got.PersonalInfo.DateOfBirth.String() != "1980-05-17" {
		t.Errorf("date_of_birth = %s", got.PersonalInfo.DateOfBirth)
	}
}

func TestParseProfile_TimestampForms(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2024-03-01T10:00:00Z", want},
		{"zoneless", "2024-03-01T10:00:00", want},
		{"date only", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := `{"user_id":"u1","personal_info":{},"created_at":"` + tt.in +
				`","updated_at":"` + tt.in + `","last_reviewed_date":"` + tt.in +
				`","risk_profile":{"risk_questionnaire_date":"` + tt.in + `"}}`
			p, err := ParseProfile(reply)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for field, ts := range map[string]*profile.Timestamp{
				"created_at":              p.CreatedAt,
				"updated_at":              p.UpdatedAt,
				"last_reviewed_date":      p.LastReviewedDate,
				"risk_questionnaire_date": p.RiskProfile.RiskQuestionnaireDate,
			} {
				if ts == nil || !ts.Equal(tt.want) {
					t.Errorf("%s = %v, want %v", field, ts, tt.want)
				}
			}
		})
	}
}

func TestParseProfile_NumericStrings(t *testing.T) {
	p, err := ParseProfile(`{"user_id":"u1","personal_info":{},"employment":{"total_annual_income":"50000"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := p.Employment.TotalAnnualIncome; v == nil || *v != 50000 {
		t.Errorf("total_annual_income = %v", v)
	}

	_, err = ParseProfile(`{"user_id":"u1","personal_info":{},"employment":{"total_annual_income":"lots"}}`)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected *ValidationError for a non-numeric amount, got %v", err)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("a", 9) + "£" + "tail"
	for n := 9; n <= 11; n++ {
		got := truncate(s, n)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%d) split a rune: %q", n, got)
		}
		if len(got) > n {
			t.Errorf("truncate(%d) returned %d bytes", n, len(got))
		}
	}
	if got := truncate(s, 10); got != strings.Repeat("a", 9) {
		t.Errorf("expected cut before the pound sign, got %q", got)
	}
	if got := truncate(s, 11); got != strings.Repeat("a", 9)+"£" {
		t.Errorf("expected pound sign kept, got %q", got)
	}
	if got := truncate("short", 500); got != "short" {
		t.Errorf("expected short input unchanged, got %q", got)
	}
}

func TestParseProfile_SnippetIsValidUTF8(t *testing.T) {
	reply := strings.Repeat("a", maxSnippet-1) + "€ not json"
	_, err := ParseProfile(reply)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !utf8.ValidString(perr.Snippet) {
		t.Errorf("snippet is not valid UTF-8: %q", perr.Snippet[len(perr.Snippet)-3:])
	}
	if len(perr.Snippet) != maxSnippet-1 {
		t.Errorf("expected snippet cut to %d bytes, got %d", maxSnippet-1, len(perr.Snippet))
	}
}
