// Package configschema renders a JSON Schema of the portalcfg settings file.
package configschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/config"
)

// enums constrains string settings that accept a closed set of values.
var enums = map[string][]any{
	"cache.backend":            {config.CacheBackendMemory, config.CacheBackendRedis},
	"observability.log_level":  {"debug", "info", "warn", "error"},
	"observability.log_format": {"json", "text"},
}

// BuildSchema returns the schema of config.Settings keyed by the settings file names,
// with defaults taken from defaults. A nil defaults uses config.DefaultSettings.
// Durations are strings such as "5m".
func BuildSchema(defaults *config.Settings) (*jsonschema.Schema, error) {
	opts := &jsonschema.ForOptions{
		IgnoreInvalidTypes: true,
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeOf(time.Duration(0)): {Type: "string"},
		},
	}

	t := reflect.TypeOf(config.Settings{})
	schema, err := jsonschema.ForType(t, opts)
	if err != nil {
		return nil, fmt.Errorf("build settings schema: %w", err)
	}
	renameFields(schema, t)

	if defaults == nil {
		defaults = config.DefaultSettings()
	}
	injectDefaults(schema, reflect.ValueOf(defaults))
	clearRequired(schema)
	applyEnums(schema, "")

	name := strings.TrimSpace(defaults.Service.Name)
	if name == "" {
		name = "portalcfg"
	}
	schema.Title = name + " configuration"
	schema.Description = "Settings file of " + name + ". Every key may also be set through environment variables."
	schema.Schema = "https://json-schema.org/draft/2020-12/schema"
	return schema, nil
}

// renameFields rekeys properties from Go field names to mapstructure names.
func renameFields(schema *jsonschema.Schema, t reflect.Type) {
	if schema == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			prop, ok := schema.Properties[field.Name]
			if !ok {
				continue
			}
			key := keyName(field)
			delete(schema.Properties, field.Name)
			schema.Properties[key] = prop
			renameFields(prop, field.Type)
		}
		for i, name := range schema.PropertyOrder {
			if f, ok := t.FieldByName(name); ok {
				schema.PropertyOrder[i] = keyName(f)
			}
		}
	case reflect.Map:
		renameFields(schema.AdditionalProperties, t.Elem())
	case reflect.Slice, reflect.Array:
		renameFields(schema.Items, t.Elem())
	}
}

func keyName(field reflect.StructField) string {
	if tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]; tag != "" && tag != "-" {
		return tag
	}
	return strings.ToLower(field.Name)
}

func injectDefaults(schema *jsonschema.Schema, v reflect.Value) {
	if schema == nil || !v.IsValid() {
		return
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		return
	}
	if v.Kind() != reflect.Struct {
		if raw, ok := marshalDefault(v); ok {
			schema.Default = raw
		}
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		prop, ok := schema.Properties[keyName(field)]
		if !ok {
			continue
		}
		injectDefaults(prop, v.Field(i))
	}
}

func marshalDefault(v reflect.Value) (json.RawMessage, bool) {
	if v.Kind() == reflect.String && v.String() == "" {
		return nil, false
	}
	var payload any = v.Interface()
	if d, ok := payload.(time.Duration); ok {
		payload = d.String()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// clearRequired drops required lists: every key has a default or is optional.
func clearRequired(schema *jsonschema.Schema) {
	if schema == nil {
		return
	}
	schema.Required = nil
	for _, prop := range schema.Properties {
		clearRequired(prop)
	}
	clearRequired(schema.AdditionalProperties)
}

func applyEnums(schema *jsonschema.Schema, path string) {
	if schema == nil {
		return
	}
	if values, ok := enums[path]; ok {
		schema.Enum = values
	}
	for name, prop := range schema.Properties {
		p := name
		if path != "" {
			p = path + "." + name
		}
		applyEnums(prop, p)
	}
}
