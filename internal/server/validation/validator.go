// Package validation checks request payloads against the JSON Schemas of
// the public API before they reach the services.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/common"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed api.schema.json
var apiSchemaJSON []byte

const apiSchemaURL = "credvault://schemas/api.json"

// Schema names one request shape.
type Schema string

const (
	SchemaRegister       Schema = "register"
	SchemaLogin          Schema = "login"
	SchemaAddRecord      Schema = "addRecord"
	SchemaUpdateRecord   Schema = "updateRecord"
	SchemaSearchRecords  Schema = "searchRecords"
	SchemaListRecords    Schema = "listRecords"
	SchemaRemoveRecord   Schema = "removeRecord"
	SchemaIssueRecovery  Schema = "issueRecovery"
	SchemaVerifyRecovery Schema = "verifyRecovery"
)

var allSchemas = []Schema{
	SchemaRegister, SchemaLogin, SchemaAddRecord, SchemaUpdateRecord, SchemaSearchRecords,
	SchemaListRecords, SchemaRemoveRecord, SchemaIssueRecovery, SchemaVerifyRecovery,
}

// Error lists every violation found in one payload. It matches
// common.ErrorValidation.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	if len(e.Violations) == 1 {
		return "validation error: " + e.Violations[0]
	}
	return fmt.Sprintf("validation error: %d violations: %s", len(e.Violations), strings.Join(e.Violations, "; "))
}

func (e *Error) Unwrap() error { return common.ErrorValidation }

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[Schema]*jsonschema.Schema
}

func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(apiSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal api schema: %w", err)
	}
	if err := c.AddResource(apiSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add api schema resource: %w", err)
	}

	v := &Validator{schemas: make(map[Schema]*jsonschema.Schema, len(allSchemas))}
	for _, s := range allSchemas {
		compiled, err := c.Compile(apiSchemaURL + "#/$defs/" + string(s))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", s, err)
		}
		v.schemas[s] = compiled
	}
	return v, nil
}

// Validate checks a raw JSON payload against schema s.
func (v *Validator) Validate(s Schema, raw []byte) error {
	compiled, ok := v.schemas[s]
	if !ok {
		return fmt.Errorf("unknown schema %q", s)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Error{Violations: []string{"/: malformed JSON: " + err.Error()}}
	}

	if err := compiled.Validate(doc); err != nil {
		return toError(err)
	}
	return nil
}

// ValidateValue checks a Go value by validating its JSON encoding.
func (v *Validator) ValidateValue(s Schema, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return v.Validate(s, raw)
}

func toError(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &Error{Violations: []string{err.Error()}}
	}
	violations := collectViolations(verr)
	if len(violations) == 0 {
		violations = []string{verr.Error()}
	}
	return &Error{Violations: violations}
}

// collectViolations walks the error tree down to its leaves.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/" + strings.Join(verr.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var out []string
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
