package audit

import (
	"strconv"
	"strings"
)

// DisclaimerLine is appended to every formatted audit.
const DisclaimerLine = "*⚠️ This is an AI-generated estimate based on the information provided, not a guarantee. Actual results may vary.*"

const noneIdentified = "None identified"

// Format renders a structured result as markdown display text. Opportunity,
// bottleneck and next-step order is the model's order.
func Format(r StructuredResult) string {
	var b strings.Builder
	b.WriteString("# Automation Readiness Assessment\n\n")
	b.WriteString("## Overall Score: " + strconv.Itoa(r.ReadinessScore) + "/100\n\n")
	b.WriteString(orDefault(r.Summary, notProvided) + "\n\n")

	b.WriteString("## 🎯 Key Automation Opportunities\n\n")
	if len(r.Opportunities) == 0 {
		b.WriteString(noneIdentified + "\n\n")
	}
	for i, opp := range r.Opportunities {
		b.WriteString("### " + strconv.Itoa(i+1) + ". " + orDefault(opp.Title, notProvided))
		b.WriteString(" [" + orDefault(string(opp.Priority), notSpecified) + " Priority]\n\n")
		b.WriteString(orDefault(opp.Description, notProvided) + "\n\n")
		b.WriteString("- **Time Savings:** " + orDefault(opp.TimeSavings, notProvided) + "\n")
		b.WriteString("- **Difficulty:** " + orDefault(opp.Difficulty, notProvided) + "\n")
		b.WriteString("- **Estimated ROI:** " + orDefault(opp.EstimatedROI, notProvided) + "\n\n")
	}

	b.WriteString("## 🚧 Current Bottlenecks\n\n")
	if len(r.Bottlenecks) == 0 {
		b.WriteString(noneIdentified + "\n")
	}
	for _, bn := range r.Bottlenecks {
		b.WriteString("- " + bn + "\n")
	}

	b.WriteString("\n## 📋 Recommended Next Steps\n\n")
	if len(r.NextSteps) == 0 {
		b.WriteString(noneIdentified + "\n")
	}
	for i, step := range r.NextSteps {
		b.WriteString(strconv.Itoa(i+1) + ". " + step + "\n")
	}

	b.WriteString("\n---\n\n")
	b.WriteString(DisclaimerLine)
	return b.String()
}
