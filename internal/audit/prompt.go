package audit

import (
	"strings"
)

const (
	notSpecified = "Not specified"
	notProvided  = "Not provided"
)

// Prompt is the system/user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// SystemPrompt defines the consultant role and the exact JSON shape the
// structured profile must return.
const SystemPrompt = `You are an AI business automation consultant specializing in education businesses.

Your task is to analyze the business and provide a structured audit with:
1. Automation readiness score (0-100)
2. Top 3-5 specific automation opportunities
3. Estimated time savings per week
4. Priority ranking (High/Medium/Low)
5. Clear next steps

Priority means: High = implement within 30 days, largest time or revenue impact; Medium = worthwhile within a quarter; Low = nice to have.
estimatedROI is a short range of return on the automation cost over a stated period (for example "3-5x in 6 months").

Be honest and specific. Focus on realistic, implementable automations.
Acknowledge that this is an AI-generated assessment, not a guarantee.

Return your response as valid JSON with this structure:
{
  "readinessScore": 75,
  "summary": "Brief 2-sentence summary",
  "opportunities": [
    {
      "title": "Automation name",
      "description": "What it does",
      "timeSavings": "5-8 hours/week",
      "priority": "High",
      "difficulty": "Medium",
      "estimatedROI": "3-5x in 6 months"
    }
  ],
  "nextSteps": ["Step 1", "Step 2", "Step 3"],
  "bottlenecks": ["Main bottleneck 1", "Main bottleneck 2"]
}

readinessScore must be an integer between 0 and 100. priority must be exactly one of "High", "Medium" or "Low". Every field is required.`

// SimpleSystemPrompt is used by the prose profile.
const SimpleSystemPrompt = "You are an AI business consultant for education businesses. Provide a concise 3-paragraph audit identifying automation opportunities, time savings, and ROI projections. State that the audit is an AI-generated estimate, not a guarantee."

const stricterSuffix = `

Your previous answer could not be parsed. Respond with ONLY the JSON object described above: no markdown fences, no commentary, every field present, readinessScore an integer from 0 to 100.`

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// BuildPrompt renders the structured-profile prompt. Absent fields are
// rendered as placeholders so the user message always has the same shape.
func BuildPrompt(in Intake) Prompt {
	var b strings.Builder
	b.WriteString("Business Type: " + orDefault(in.BusinessType, notSpecified) + "\n")
	b.WriteString("Current Tools: " + orDefault(in.CurrentTools, notSpecified) + "\n")
	b.WriteString("Team Size: " + orDefault(in.TeamSize, notSpecified) + "\n")
	b.WriteString("Primary Bottleneck: " + orDefault(in.PrimaryBottleneck, notSpecified) + "\n")
	b.WriteString("Monthly Leads/Students: " + orDefault(in.MonthlyLeads, notSpecified) + "\n")
	b.WriteString("Current Automation Level: " + orDefault(in.AutomationLevel, notSpecified) + "\n")
	b.WriteString("Business Description: " + orDefault(in.BusinessDescription, notProvided) + "\n")
	b.WriteString("Current Revenue: " + orDefault(in.CurrentRevenue, notSpecified) + "\n")
	b.WriteString("\nAnalyze this education business and provide a detailed automation audit.")
	return Prompt{System: SystemPrompt, User: b.String()}
}

// BuildSimplePrompt renders the prose-profile prompt from the description
// and revenue only.
func BuildSimplePrompt(in Intake) Prompt {
	user := "Business: " + orDefault(in.BusinessDescription, notProvided) + "\n" +
		"Current Revenue: " + orDefault(in.CurrentRevenue, notSpecified) + "\n\n" +
		"Provide a business automation audit."
	return Prompt{System: SimpleSystemPrompt, User: user}
}

// StricterPrompt is the variant used for the single re-prompt after a
// malformed structured answer.
func StricterPrompt(p Prompt) Prompt {
	return Prompt{System: p.System + stricterSuffix, User: p.User}
}
