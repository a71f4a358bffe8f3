package audit

import (
	"strings"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
)

// Mode selects the generation profile.
type Mode string

const (
	// ModeStructured asks the model for a schema-validated JSON audit.
	ModeStructured Mode = "structured"
	// ModeSimple asks for a short prose audit with no schema.
	ModeSimple Mode = "simple"
)

// Intake is the business context submitted with an audit request. Only
// BusinessDescription is required.
type Intake struct {
	BusinessDescription string `json:"businessDescription"`
	BusinessType        string `json:"businessType,omitempty"`
	CurrentTools        string `json:"currentTools,omitempty"`
	TeamSize            string `json:"teamSize,omitempty"`
	PrimaryBottleneck   string `json:"primaryBottleneck,omitempty"`
	MonthlyLeads        string `json:"monthlyLeads,omitempty"`
	AutomationLevel     string `json:"automationLevel,omitempty"`
	CurrentRevenue      string `json:"currentRevenue,omitempty"`
}

// Normalize returns a copy with every field trimmed.
func (in Intake) Normalize() Intake {
	return Intake{
		BusinessDescription: strings.TrimSpace(in.BusinessDescription),
		BusinessType:        strings.TrimSpace(in.BusinessType),
		CurrentTools:        strings.TrimSpace(in.CurrentTools),
		TeamSize:            strings.TrimSpace(in.TeamSize),
		PrimaryBottleneck:   strings.TrimSpace(in.PrimaryBottleneck),
		MonthlyLeads:        strings.TrimSpace(in.MonthlyLeads),
		AutomationLevel:     strings.TrimSpace(in.AutomationLevel),
		CurrentRevenue:      strings.TrimSpace(in.CurrentRevenue),
	}
}

// Priority ranks an automation opportunity.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type Opportunity struct {
	Title        string   `json:"title" bson:"title"`
	Description  string   `json:"description" bson:"description"`
	TimeSavings  string   `json:"timeSavings" bson:"timeSavings"`
	Priority     Priority `json:"priority" bson:"priority"`
	Difficulty   string   `json:"difficulty" bson:"difficulty"`
	EstimatedROI string   `json:"estimatedROI" bson:"estimatedROI"`
}

// StructuredResult is the schema-validated form of an assessment.
type StructuredResult struct {
	ReadinessScore int           `json:"readinessScore" bson:"readinessScore"`
	Summary        string        `json:"summary" bson:"summary"`
	Opportunities  []Opportunity `json:"opportunities" bson:"opportunities"`
	NextSteps      []string      `json:"nextSteps" bson:"nextSteps"`
	Bottlenecks    []string      `json:"bottlenecks" bson:"bottlenecks"`
}

// Result is what a Generator hands back: display text always, the
// structured object only in structured mode.
type Result struct {
	Mode       Mode
	Text       string
	Structured *StructuredResult
}

// Record is a persisted audit. It is written once and never mutated.
type Record struct {
	ID                  string            `json:"id" bson:"_id"`
	UserID              models.Identity   `json:"user_id" bson:"userId"`
	BusinessDescription string            `json:"business_description" bson:"businessDescription"`
	CurrentRevenue      string            `json:"current_revenue" bson:"currentRevenue,omitempty"`
	Response            string            `json:"ai_response" bson:"aiResponse"`
	Result              *StructuredResult `json:"result,omitempty" bson:"result,omitempty"`
	Mode                Mode              `json:"mode" bson:"mode"`
	CreatedAt           time.Time         `json:"created_at" bson:"createdAt"`
}
