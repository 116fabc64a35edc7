package profile

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

// SchemaJSON returns the JSON schema of FinancialProfile, reflected from the
// Go types. It is rendered on first use and cached.
var SchemaJSON = sync.OnceValue(func() string {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	s := r.Reflect(&FinancialProfile{})
	s.Version = ""
	s.Title = "FinancialProfile"
	allowNull(s, profileType)
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		panic("profile: render schema: " + err.Error())
	}
	return string(out)
})

// allowNull walks t alongside its reflected schema and marks every pointer
// and slice field as nullable, since those encode as null when unset.
func allowNull(s *jsonschema.Schema, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		if s.Properties == nil {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := jsonName(f)
			if name == "" {
				continue
			}
			prop, ok := s.Properties.Get(name)
			if !ok {
				continue
			}
			allowNull(prop, f.Type)
			if k := f.Type.Kind(); k == reflect.Pointer || k == reflect.Slice {
				markNullable(prop)
			}
		}
	case reflect.Slice:
		if s.Items != nil {
			allowNull(s.Items, t.Elem())
		}
	}
}

// markNullable rewrites "type": T as "type": [T, "null"]. The schema type only
// holds a single string, so the pair goes through Extras.
func markNullable(s *jsonschema.Schema) {
	if s.Type == "" {
		return
	}
	if s.Extras == nil {
		s.Extras = map[string]any{}
	}
	s.Extras["type"] = []string{s.Type, "null"}
	s.Type = ""
	if len(s.Enum) > 0 {
		s.Enum = append(s.Enum, nil)
	}
}
