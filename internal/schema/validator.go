// Package schema validates transformed court list documents against the JSON Schema of
// their variant.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const baseURL = "https://courtlist.invalid/schemas/"

var schemaFiles = map[model.CourtListType]string{
	model.CourtListTypeStandard:     "standard.json",
	model.CourtListTypePublic:       "public.json",
	model.CourtListTypeOnlinePublic: "online_public.json",
}

// ValidationError reports why a document was rejected. Messages holds every violation.
type ValidationError struct {
	Variant  model.CourtListType
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s document failed schema validation: %s", e.Variant, strings.Join(e.Messages, "; "))
}

// ErrorClass implements the metrics error classifier.
func (e *ValidationError) ErrorClass() string { return "schema_invalid" }

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validator holds the compiled schema of each variant. It is safe for concurrent use.
type Validator struct {
	schemas map[model.CourtListType]*jsonschema.Schema
	broken  map[model.CourtListType]error
}

// New compiles the embedded schemas. A schema that fails to compile is remembered and every
// document of that variant is rejected.
func New() *Validator {
	v := &Validator{
		schemas: make(map[model.CourtListType]*jsonschema.Schema, len(schemaFiles)),
		broken:  make(map[model.CourtListType]error),
	}
	for variant, file := range schemaFiles {
		s, err := compile(file)
		if err != nil {
			v.broken[variant] = err
			continue
		}
		v.schemas[variant] = s
	}
	return v
}

func compile(file string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + file)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", file, err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := baseURL + file
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", file, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", file, err)
	}
	return s, nil
}

// Validate serialises doc and checks it against the schema registered for variant.
func (v *Validator) Validate(doc any, variant model.CourtListType) error {
	if isNil(doc) {
		return &ValidationError{Variant: variant, Messages: []string{"document is null"}}
	}
	if err, ok := v.broken[variant]; ok {
		return &ValidationError{Variant: variant, Messages: []string{err.Error()}}
	}
	s, ok := v.schemas[variant]
	if !ok {
		return &ValidationError{Variant: variant, Messages: []string{fmt.Sprintf("no schema registered for %q", variant)}}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return &ValidationError{Variant: variant, Messages: []string{"serialise document: " + err.Error()}}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return &ValidationError{Variant: variant, Messages: []string{"decode document: " + err.Error()}}
	}

	if err := s.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Variant: variant, Messages: flatten(verr)}
		}
		return &ValidationError{Variant: variant, Messages: []string{err.Error()}}
	}
	return nil
}

// flatten collects leaf causes as "<instance path>: <message>".
func flatten(e *jsonschema.ValidationError) []string {
	if len(e.Causes) == 0 {
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + e.Message}
	}
	var out []string
	for _, c := range e.Causes {
		out = append(out, flatten(c)...)
	}
	return out
}

func isNil(doc any) bool {
	if doc == nil {
		return true
	}
	rv := reflect.ValueOf(doc)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
