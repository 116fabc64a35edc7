package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Decode parses a profile document and revalidates it. Malformed JSON is
// returned as a plain error; well-formed JSON that does not fit the model is a
// *ValidationError. Quoted numbers in numeric fields ("50000", "£1,250.50")
// are accepted.
func Decode(data []byte) (*FinancialProfile, error) {
	data, err := coerceNumbers(data)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	var p FinancialProfile
	if err := json.Unmarshal(data, &p); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		return nil, decodeProblem(err)
	}
	if err := p.Revalidate(); err != nil {
		return nil, err
	}
	return &p, nil
}

var profileType = reflect.TypeOf(FinancialProfile{})

// coerceNumbers rewrites string values that sit in numeric fields of
// FinancialProfile into JSON numbers when they parse as one. Anything else is
// left for json.Unmarshal to accept or reject.
func coerceNumbers(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if !coerceValue(&doc, profileType) {
		return data, nil
	}
	return json.Marshal(doc)
}

// coerceValue walks v alongside t and reports whether anything changed.
func coerceValue(v *any, t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		obj, ok := (*v).(map[string]any)
		if !ok {
			return false
		}
		changed := false
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := jsonName(f)
			if name == "" {
				continue
			}
			val, ok := obj[name]
			if !ok {
				continue
			}
			if coerceValue(&val, f.Type) {
				obj[name] = val
				changed = true
			}
		}
		return changed
	case reflect.Slice:
		items, ok := (*v).([]any)
		if !ok {
			return false
		}
		changed := false
		for i := range items {
			if coerceValue(&items[i], t.Elem()) {
				changed = true
			}
		}
		return changed
	case reflect.Float32, reflect.Float64:
		return replaceNumber(v, func(s string) bool {
			_, err := strconv.ParseFloat(s, 64)
			return err == nil
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return replaceNumber(v, func(s string) bool {
			_, err := strconv.ParseInt(s, 10, 64)
			return err == nil
		})
	}
	return false
}

func replaceNumber(v *any, valid func(string) bool) bool {
	s, ok := (*v).(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || !valid(s) {
		return false
	}
	*v = json.Number(s)
	return true
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func decodeProblem(err error) *ValidationError {
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		path := typ.Field
		if path == "" {
			path = "(root)"
		}
		return &ValidationError{Problems: []FieldError{{
			Path:    path,
			Message: fmt.Sprintf("expected %s, got %s", typ.Type, typ.Value),
		}}}
	}
	return &ValidationError{Problems: []FieldError{{Message: err.Error()}}}
}

// Merge overlays patch onto the stored document key by key (top level only;
// a patched section replaces the stored section whole), pins identity to
// userID, stamps updated_at and revalidates the result.
func Merge(existing json.RawMessage, patch map[string]json.RawMessage, userID string, now time.Time) (*FinancialProfile, error) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(existing, &doc); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}
	createdAt, hadCreated := doc["created_at"]

	for k, v := range patch {
		doc[k] = v
	}

	id, _ := json.Marshal(userID)
	stamp, _ := json.Marshal(NewTimestamp(now))
	doc["user_id"] = id
	doc["id"] = id
	doc["updated_at"] = stamp
	if hadCreated {
		doc["created_at"] = createdAt
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged profile: %w", err)
	}
	p, err := Decode(merged)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, &ValidationError{Problems: []FieldError{{Message: err.Error()}}}
	}
	return p, nil
}
