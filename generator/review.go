package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ReviewReport is the critique produced by the review operation. Quoted spans
// are supposed to be exact substrings of the reviewed text; the model is only
// instructed, not forced, to honour that.
type ReviewReport struct {
	OverallScore   int           `json:"overall_score"`
	OverallComment string        `json:"overall_comment"`
	RevisedText    string        `json:"revised_content"`
	Strengths      []Strength    `json:"strengths"`
	Improvements   []Improvement `json:"improvements"`
	Additions      []Addition    `json:"additions"`
	AppealPoints   []AppealPoint `json:"appeal_points"`
	Warnings       []Warning     `json:"warnings"`
}

// UnmarshalJSON accepts an integral score written as a float (85.0), which the
// schema's "integer" type allows.
func (r *ReviewReport) UnmarshalJSON(data []byte) error {
	type Alias ReviewReport
	aux := struct {
		*Alias
		OverallScore float64 `json:"overall_score"`
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.OverallScore = int(math.Round(aux.OverallScore))
	return nil
}

type Strength struct {
	Text    string `json:"text"`
	Comment string `json:"comment"`
}

type Improvement struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

type Addition struct {
	Where   string `json:"where"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

type AppealPoint struct {
	Text string `json:"text"`
	How  string `json:"how"`
}

type Warning struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

const reviewSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["overall_score", "overall_comment", "revised_content"],
  "properties": {
    "overall_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "overall_comment": {"type": "string"},
    "revised_content": {"type": "string"},
    "strengths": {"type": "array", "items": {"$ref": "#/$defs/quoted", "required": ["text"]}},
    "improvements": {"type": "array", "items": {"$ref": "#/$defs/quoted", "required": ["original"]}},
    "additions": {"type": "array", "items": {"$ref": "#/$defs/quoted", "required": ["where"]}},
    "appeal_points": {"type": "array", "items": {"$ref": "#/$defs/quoted", "required": ["text"]}},
    "warnings": {"type": "array", "items": {"$ref": "#/$defs/quoted", "required": ["text"]}}
  },
  "$defs": {
    "quoted": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

var reviewSchema = mustCompileSchema(reviewSchemaJSON, "review.schema.json")

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ParseReview validates the model's answer against the report schema and
// decodes it. Any failure is a *ParseError.
func ParseReview(raw string) (ReviewReport, error) {
	body := extractJSONObject(raw)
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return ReviewReport{}, &ParseError{What: "review", Err: err}
	}
	if err := reviewSchema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return ReviewReport{}, &ParseError{What: "review", Err: errors.New(firstCause(ve))}
		}
		return ReviewReport{}, &ParseError{What: "review", Err: err}
	}
	var report ReviewReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return ReviewReport{}, &ParseError{What: "review", Err: err}
	}
	return report, nil
}

func firstCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := "/" + strings.Join(ve.InstanceLocation, "/")
	return fmt.Sprintf("%s: %s", loc, ve.Error())
}

// UnmatchedSpans lists quoted spans that do not occur in text.
func (r ReviewReport) UnmatchedSpans(text string) []string {
	var out []string
	check := func(span string) {
		if span != "" && !strings.Contains(text, span) {
			out = append(out, span)
		}
	}
	for _, s := range r.Strengths {
		check(s.Text)
	}
	for _, s := range r.Improvements {
		check(s.Original)
	}
	for _, s := range r.Additions {
		check(s.Where)
	}
	for _, s := range r.AppealPoints {
		check(s.Text)
	}
	for _, s := range r.Warnings {
		check(s.Text)
	}
	return out
}

// DropUnmatched returns a copy without annotations whose quote is missing from text.
func (r ReviewReport) DropUnmatched(text string) ReviewReport {
	in := func(span string) bool { return strings.Contains(text, span) }
	out := r
	out.Strengths = filter(r.Strengths, func(s Strength) bool { return in(s.Text) })
	out.Improvements = filter(r.Improvements, func(s Improvement) bool { return in(s.Original) })
	out.Additions = filter(r.Additions, func(s Addition) bool { return in(s.Where) })
	out.AppealPoints = filter(r.AppealPoints, func(s AppealPoint) bool { return in(s.Text) })
	out.Warnings = filter(r.Warnings, func(s Warning) bool { return in(s.Text) })
	return out
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
