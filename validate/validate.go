// Package validate checks request sections against route schemas with
// go-playground/validator rules.
//
// Schema values are validator tag strings ("required,min=4,alphanum") or
// nested schemas for JSON objects:
//
//	flowroute.Validation{
//	    Params: flowroute.Schema{"id": "required,uuid"},
//	    Body: flowroute.Schema{
//	        "title":  "required,min=3",
//	        "author": flowroute.Schema{"name": "required"},
//	    },
//	}
//
// Fields not mentioned in a schema are allowed.
package validate

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ridge/flowroute"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
)

// Validator implements flowroute.Validator
type Validator struct {
	v *validator.Validate
}

// New creates a Validator
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Engine returns the underlying validator, e.g. to register custom rules
func (v *Validator) Engine() *validator.Validate {
	return v.v
}

type section struct {
	name   flowroute.Section
	schema flowroute.Schema
}

// Compile implements flowroute.Validator. Sections are checked in the order
// params, query, body; the first failing section is reported.
func (v *Validator) Compile(val flowroute.Validation) flowroute.Handler {
	var sections []section
	for _, s := range []section{
		{name: flowroute.SectionParams, schema: val.Params},
		{name: flowroute.SectionQuery, schema: val.Query},
		{name: flowroute.SectionBody, schema: val.Body},
	} {
		if s.schema != nil {
			sections = append(sections, s)
		}
	}
	rules := make([]map[string]any, len(sections))
	for i, s := range sections {
		rules[i] = toRules(s.schema)
	}

	return func(c *flowroute.Context) error {
		for i, s := range sections {
			data, err := c.Fields(s.name)
			if err != nil {
				return &Error{Source: s.name, Message: err.Error()}
			}
			if errs := v.v.ValidateMapCtx(c.Context(), data, rules[i]); len(errs) > 0 {
				verr := newError(s.name, errs)
				c.Logger().Debug("Request validation failed", zap.String("source", string(s.name)), zap.Strings("keys", verr.Keys))
				return verr
			}
		}
		return nil
	}
}

// toRules converts a schema into the form accepted by ValidateMap
func toRules(s flowroute.Schema) map[string]any {
	rules := make(map[string]any, len(s))
	for k, r := range s {
		switch r := r.(type) {
		case flowroute.Schema:
			rules[k] = toRules(r)
		case map[string]any:
			rules[k] = toRules(r)
		case string:
			rules[k] = r
		default:
			panic(fmt.Errorf("invalid rule for field %q: %T", k, r))
		}
	}
	return rules
}

// Error is a validation failure of one request section
type Error struct {
	Source  flowroute.Section
	Keys    []string
	Details map[string]string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode is the HTTP status the error is rendered with
func (e *Error) StatusCode() int {
	return http.StatusBadRequest
}

func newError(source flowroute.Section, errs map[string]any) *Error {
	details := map[string]string{}
	flattenErrors("", errs, details)
	keys := maps.Keys(details)
	slices.Sort(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, details[k])
	}
	return &Error{
		Source:  source,
		Keys:    keys,
		Details: details,
		Message: strings.Join(msgs, ". "),
	}
}

func flattenErrors(prefix string, errs map[string]any, out map[string]string) {
	for field, e := range errs {
		key := prefix + field
		switch e := e.(type) {
		case map[string]any:
			flattenErrors(key+".", e, out)
		case validator.ValidationErrors:
			if len(e) > 0 {
				out[key] = describe(key, e[0])
			}
		case error:
			out[key] = fmt.Sprintf("%q %s", key, e.Error())
		}
	}
}

func describe(key string, fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%q failed on the %q rule with parameter %q", key, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%q failed on the %q rule", key, fe.Tag())
}

type validationBody struct {
	Source string   `json:"source"`
	Keys   []string `json:"keys"`
}

type errorBody struct {
	StatusCode int            `json:"statusCode"`
	Error      string         `json:"error"`
	Message    string         `json:"message"`
	Validation validationBody `json:"validation"`
}

// ErrorHandler implements flowroute.Validator. It renders *Error as a 400
// response and passes other errors on.
func (v *Validator) ErrorHandler() flowroute.ErrorHandler {
	return ErrorHandler
}

// ErrorHandler renders *Error as a 400 response and passes other errors on
func ErrorHandler(c *flowroute.Context, err error) error {
	var verr *Error
	if !errors.As(err, &verr) {
		return err
	}
	keys := verr.Keys
	if keys == nil {
		keys = []string{}
	}
	c.Send(verr.StatusCode(), errorBody{
		StatusCode: verr.StatusCode(),
		Error:      http.StatusText(verr.StatusCode()),
		Message:    verr.Message,
		Validation: validationBody{Source: string(verr.Source), Keys: keys},
	})
	return nil
}
