package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const questionSchemaJSON = `{
	"type": "object",
	"required": ["question", "difficulty_level"],
	"properties": {
		"question": {"type": "string", "pattern": "\\S"},
		"analysis": {"type": ["string", "null"]},
		"difficulty_level": {"enum": ["easy", "medium", "hard"]}
	}
}`

const assessmentSchemaJSON = `{
	"type": "object",
	"required": ["overall_score", "technical_accuracy", "communication_quality", "strengths", "areas_of_improvement"],
	"properties": {
		"overall_score": {"type": "number", "minimum": 0, "maximum": 10},
		"technical_accuracy": {"type": "string"},
		"communication_quality": {"type": "string"},
		"strengths": {"type": "string"},
		"areas_of_improvement": {"type": "string"}
	}
}`

var (
	questionSchema   = mustCompileSchema("inline://question", questionSchemaJSON)
	assessmentSchema = mustCompileSchema("inline://assessment", assessmentSchemaJSON)
)

func mustCompileSchema(url, schema string) *jsonschema.Schema {
	compiled, err := compileSchema(url, schema)
	if err != nil {
		panic(err)
	}
	return compiled
}

func compileSchema(url, schema string) (*jsonschema.Schema, error) {
	if !gjson.Valid(schema) {
		return nil, fmt.Errorf("invalid JSON schema %s", url)
	}
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(ref string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("unsupported schema ref: %s", ref)
	}
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// extractJSON pulls the JSON object out of a model reply, tolerating markdown fences
// and chatter around the payload.
func extractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return "", fmt.Errorf("model output is not valid JSON")
	}
	return s, nil
}

func parseQuestion(text string) (*Question, error) {
	doc, err := decodeDocument(text)
	if err != nil {
		return nil, err
	}
	if level, ok := doc["difficulty_level"].(string); ok {
		doc["difficulty_level"] = strings.ToLower(strings.TrimSpace(level))
	}
	if err := questionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("question reply failed validation: %w", err)
	}
	out := &Question{
		Question:        strings.TrimSpace(doc["question"].(string)),
		DifficultyLevel: doc["difficulty_level"].(string),
	}
	if analysis, ok := doc["analysis"].(string); ok {
		out.Analysis = strings.TrimSpace(analysis)
	}
	return out, nil
}

func parseAssessment(text string) (*Assessment, error) {
	doc, err := decodeDocument(text)
	if err != nil {
		return nil, err
	}
	// models sometimes answer list-valued fields with arrays of strings
	for _, key := range []string{"technical_accuracy", "communication_quality", "strengths", "areas_of_improvement"} {
		if items, ok := doc[key].([]any); ok {
			doc[key] = joinStrings(items)
		}
	}
	if err := assessmentSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("feedback reply failed validation: %w", err)
	}
	score, err := doc["overall_score"].(json.Number).Float64()
	if err != nil {
		return nil, fmt.Errorf("overall_score: %w", err)
	}
	return &Assessment{
		OverallScore:         score,
		TechnicalAccuracy:    doc["technical_accuracy"].(string),
		CommunicationQuality: doc["communication_quality"].(string),
		Strengths:            doc["strengths"].(string),
		AreasOfImprovement:   doc["areas_of_improvement"].(string),
	}, nil
}

func decodeDocument(text string) (map[string]any, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return doc, nil
}

func joinStrings(items []any) any {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return items
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
