package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat_Layout(t *testing.T) {
	r, err := ParseStructured(validResult)
	require.NoError(t, err)

	out := Format(*r)
	require.True(t, strings.HasPrefix(out, "# Automation Readiness Assessment\n\n## Overall Score: 72/100\n\n"))
	require.True(t, strings.HasSuffix(out, "---\n\n"+DisclaimerLine))
	require.Contains(t, out, "### 1. Automated scheduling [High Priority]")
	require.Contains(t, out, "### 2. Lead nurture emails [Medium Priority]")
	require.Contains(t, out, "- **Time Savings:** 5-8 hours/week")
	require.Contains(t, out, "- **Estimated ROI:** 3-5x in 6 months")
	require.Contains(t, out, "- Manual scheduling\n")
	require.Contains(t, out, "1. Pick a booking tool\n2. Write nurture copy\n")

	require.Less(t, strings.Index(out, "Automated scheduling"), strings.Index(out, "Lead nurture emails"))
	require.Less(t, strings.Index(out, "Key Automation Opportunities"), strings.Index(out, "Current Bottlenecks"))
	require.Less(t, strings.Index(out, "Current Bottlenecks"), strings.Index(out, "Recommended Next Steps"))
}

func TestFormat_EmptySectionsAndPlaceholders(t *testing.T) {
	out := Format(StructuredResult{
		ReadinessScore: 10,
		Opportunities:  []Opportunity{{Title: "Reminders", Priority: PriorityLow}},
	})
	require.Contains(t, out, "## Overall Score: 10/100\n\nNot provided\n\n")
	require.Contains(t, out, "- **Time Savings:** Not provided")
	require.Contains(t, out, "## 🚧 Current Bottlenecks\n\nNone identified\n")
	require.Contains(t, out, "## 📋 Recommended Next Steps\n\nNone identified\n")
	require.True(t, strings.HasSuffix(out, DisclaimerLine))

	none := Format(StructuredResult{ReadinessScore: 0, Summary: "s"})
	require.Contains(t, none, "## 🎯 Key Automation Opportunities\n\nNone identified\n\n")
}

func TestFormat_Deterministic(t *testing.T) {
	r, err := ParseStructured(validResult)
	require.NoError(t, err)
	require.Equal(t, Format(*r), Format(*r))
}
