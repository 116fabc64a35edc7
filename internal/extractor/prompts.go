package extractor

import (
	"fmt"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

const systemPrompt = `You are an expert financial advice data extractor. You analyse conversation transcripts between a financial adviser (Holly) and a client and extract a structured financial profile.

Extract ONLY information that is explicitly stated in the conversation. Do not make assumptions or infer information that is not clearly mentioned.

You must return a single JSON object that matches this FinancialProfile JSON schema exactly:

%s

Guidelines:
- Personal information: names, date of birth, marital status, contact and address details.
- Employment status and every income figure that is stated.
- Financial goals with as much specificity as the client gives.
- Risk attitude and investment preferences if they are discussed.
- Assets, liabilities and monthly expenses if they are mentioned.
- Dependents and family situation.
- Numbers only when explicitly stated, as plain JSON numbers without currency symbols or separators.
- British English spellings and UK financial terms.
- Dates as YYYY-MM-DD.
- null for any field that was not discussed or is unclear.
- Enum fields must use one of the exact values listed in the schema.
- Nested objects must match their schema structures.
- Leave "status" out; it is computed after extraction.`

const extractionUserPrompt = `Analyse this financial advice conversation and extract the client's financial profile.

Conversation:
%s

Return ONLY a JSON object matching the FinancialProfile schema from the system message, with no additional text or explanation.

Requirements:
- Only information explicitly stated in the conversation.
- null for unknown or unmentioned fields.
- Be accurate with names, numbers and dates.
- Set user_id to: %q
- Enum values must match the schema exactly.`

// BuildPrompts returns the system and user instructions for one extraction.
func BuildPrompts(transcript, userID string) (system, user string) {
	return fmt.Sprintf(systemPrompt, profile.SchemaJSON()), fmt.Sprintf(extractionUserPrompt, transcript, userID)
}
