package flowroute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoStatusMatched is returned by WithStatus when none of the rules accepts
// the value. It fails the pipeline like any other error, i.e. the client gets
// a 500 response: an unmatched status is a configuration bug.
var ErrNoStatusMatched = errors.New("no status matched")

// NoStatusMatchedError is the concrete error returned by WithStatus. It
// matches ErrNoStatusMatched with errors.Is.
type NoStatusMatchedError struct {
	Value any
}

func (e NoStatusMatchedError) Error() string {
	return fmt.Sprintf("%s for value of type %T", ErrNoStatusMatched, e.Value)
}

// Unwrap returns ErrNoStatusMatched
func (e NoStatusMatchedError) Unwrap() error {
	return ErrNoStatusMatched
}

// Tagged is a computation result annotated with the HTTP status it should be
// sent with. Only WithStatus and SelectStatus produce tagged values; Respond
// unwraps them.
//
// Only the data takes part in JSON encoding.
type Tagged struct {
	data   any
	status int
}

// Data returns the tagged value
func (t Tagged) Data() any {
	return t.data
}

// Status returns the HTTP status selected for the value
func (t Tagged) Status() int {
	return t.status
}

// MarshalJSON implements json.Marshaler
func (t Tagged) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.data)
}

// StatusRule selects Status when Match accepts the value
type StatusRule struct {
	Status int
	Match  func(v any) bool
}

// StatusRules is an ordered list of rules; the first match wins
type StatusRules []StatusRule

// Status is a shorthand constructor for StatusRule
func Status(code int, match func(v any) bool) StatusRule {
	return StatusRule{Status: code, Match: match}
}

// Always matches any value. Useful as the last rule.
func Always(any) bool {
	return true
}

// WithStatus tags v with the status of the first rule accepting it.
//
// A value that is already tagged is re-tagged: the rules see its Data.
func WithStatus(rules StatusRules, v any) (Tagged, error) {
	if t, ok := v.(Tagged); ok {
		v = t.data
	}
	for _, rule := range rules {
		if rule.Match != nil && rule.Match(v) {
			return Tagged{data: v, status: rule.Status}, nil
		}
	}
	return Tagged{}, NoStatusMatchedError{Value: v}
}

// SelectStatus binds the rules and returns the selector as a pipeline step,
// typically the last one of a Flow:
//
//	flowroute.Flow(
//	    createOrder,
//	    flowroute.SelectStatus(
//	        flowroute.Status(http.StatusCreated, isNew),
//	        flowroute.Status(http.StatusOK, flowroute.Always),
//	    ),
//	)
func SelectStatus(rules ...StatusRule) Step {
	rules = append(StatusRules(nil), rules...)
	return func(_ context.Context, in any) (any, error) {
		t, err := WithStatus(rules, in)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}
