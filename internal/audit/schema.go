package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// resultSchema is the JSON schema every structured answer must satisfy.
// Extra properties are tolerated; missing or mistyped required ones are not.
const resultSchema = `{
  "type": "object",
  "required": ["readinessScore", "summary", "opportunities", "nextSteps", "bottlenecks"],
  "properties": {
    "readinessScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "summary": {"type": "string", "minLength": 1},
    "opportunities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "timeSavings", "priority", "difficulty", "estimatedROI"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "timeSavings": {"type": "string"},
          "priority": {"type": "string", "enum": ["High", "Medium", "Low"]},
          "difficulty": {"type": "string"},
          "estimatedROI": {"type": "string"}
        }
      }
    },
    "nextSteps": {"type": "array", "items": {"type": "string"}},
    "bottlenecks": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = mustCompile(resultSchema)

func mustCompile(s string) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("audit: invalid result schema: %v", err))
	}
	return sch
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseStructured validates raw model output against the result schema and
// decodes it. Any failure is reported as ErrMalformedModelOutput.
func ParseStructured(raw string) (*StructuredResult, error) {
	body := []byte(stripFences(raw))
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedModelOutput)
	}

	res, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedModelOutput, strings.Join(msgs, "; "))
	}

	type plain StructuredResult
	var wire struct {
		plain
		ReadinessScore json.Number `json:"readinessScore"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected content after JSON object", ErrMalformedModelOutput)
	}

	// the schema accepts integral floats such as 100.0 or 1e2
	score, err := wire.ReadinessScore.Float64()
	if err != nil || score != math.Trunc(score) || score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: readinessScore %q is not an integer in 0..100", ErrMalformedModelOutput, wire.ReadinessScore)
	}
	out := StructuredResult(wire.plain)
	out.ReadinessScore = int(score)
	return &out, nil
}
