package dynconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

var errNotObject = errors.New("override is not an object")

// MergeMaps merges override onto def and returns a new map.
//
// Every key of def is present in the result. An override value replaces the
// default when it has the same JSON kind; null and mismatched values keep the
// default. Arrays are replaced, never concatenated. Objects one level down are
// merged field by field with the same rule; deeper values are replaced whole.
// Override keys unknown to def are kept.
func MergeMaps(def, override map[string]any) map[string]any {
	return mergeLevel(def, override, 1)
}

func mergeLevel(def, override map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(def)+len(override))
	for k, dv := range def {
		ov, present := override[k]
		if !present || ov == nil || !sameKind(dv, ov) {
			out[k] = clone(dv)
			continue
		}
		dm, dIsMap := dv.(map[string]any)
		om, oIsMap := ov.(map[string]any)
		if depth > 0 && dIsMap && oIsMap {
			out[k] = mergeLevel(dm, om, depth-1)
			continue
		}
		out[k] = clone(ov)
	}
	for k, ov := range override {
		if _, known := def[k]; !known && ov != nil {
			out[k] = clone(ov)
		}
	}
	return out
}

// sameKind reports whether ov may replace dv. A null default accepts anything.
func sameKind(dv, ov any) bool {
	switch dv.(type) {
	case nil:
		return true
	case map[string]any:
		_, ok := ov.(map[string]any)
		return ok
	case []any:
		_, ok := ov.([]any)
		return ok
	case string:
		_, ok := ov.(string)
		return ok
	case float64:
		_, ok := ov.(float64)
		return ok
	case bool:
		_, ok := ov.(bool)
		return ok
	default:
		return false
	}
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

// toMap renders a record as its JSON object form.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fromMap decodes a merged object into a record, reading json tags and accepting
// numbers for integer fields.
func fromMap[T any](m map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(m); err != nil {
		return out, err
	}
	return out, nil
}

// Merger merges decoded server overrides onto typed defaults.
type Merger struct {
	keepUnmatched bool
	log           logger.Logger
}

// NewMerger creates a merger. With keepUnmatched, keyed records whose discriminant
// matches no default bucket are appended instead of dropped.
func NewMerger(keepUnmatched bool, log logger.Logger) *Merger {
	return &Merger{keepUnmatched: keepUnmatched, log: logger.OrNop(log)}
}

// mergeRecord merges an object override onto def. Anything else leaves def unchanged.
// When the merged object does not decode, each top-level override key is applied on its
// own and the keys that still fail are left at their defaults and returned in dropped.
func mergeRecord[T any](def T, override any) (merged T, dropped []string, err error) {
	ov, ok := override.(map[string]any)
	if !ok {
		return def, nil, errNotObject
	}
	dm, err := toMap(def)
	if err != nil {
		return def, nil, err
	}
	merged, err = fromMap[T](MergeMaps(dm, ov))
	if err == nil {
		return merged, nil, nil
	}

	keys := make([]string, 0, len(ov))
	for k := range ov {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	acc := dm
	for _, k := range keys {
		next := MergeMaps(acc, map[string]any{k: ov[k]})
		if _, keyErr := fromMap[T](next); keyErr != nil {
			dropped = append(dropped, k)
			continue
		}
		acc = next
	}
	merged, err = fromMap[T](acc)
	if err != nil {
		return def, nil, fmt.Errorf("decode merged record: %w", err)
	}
	return merged, dropped, nil
}

// mergeKeyed merges a list of override records onto default buckets matched by the
// string field key. Bucket order follows defs; a single object is treated as a
// one-record list.
func mergeKeyed[T any](m *Merger, domain string, defs []T, key string, override any) []T {
	var records []any
	switch ov := override.(type) {
	case []any:
		records = ov
	case map[string]any:
		records = []any{ov}
	}

	buckets := make([]map[string]any, len(defs))
	for i, d := range defs {
		dm, err := toMap(d)
		if err != nil {
			dm = map[string]any{}
		}
		buckets[i] = dm
	}

	var extra []map[string]any
	for _, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			m.log.Debug("skipping non-object override record", "domain", domain)
			continue
		}
		disc, _ := rec[key].(string)
		idx := -1
		for i, b := range buckets {
			if b[key] == disc {
				idx = i
				break
			}
		}
		if idx >= 0 {
			buckets[idx] = MergeMaps(buckets[idx], rec)
			continue
		}
		if !m.keepUnmatched {
			m.log.Warn("dropping override record with no matching default", "domain", domain, key, disc)
			continue
		}
		var zero T
		base, err := toMap(zero)
		if err != nil {
			continue
		}
		extra = append(extra, MergeMaps(base, rec))
	}

	out := make([]T, 0, len(defs)+len(extra))
	for i, b := range buckets {
		v, err := fromMap[T](b)
		if err != nil {
			m.log.Warn("override record not decodable, keeping default", "domain", domain, "error", err)
			v = defs[i]
		}
		out = append(out, v)
	}
	for _, b := range extra {
		v, err := fromMap[T](b)
		if err != nil {
			m.log.Warn("unmatched override record not decodable", "domain", domain, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// systemOverride turns {module, setting, value} rows into a nested override shaped like
// def. Settings are matched in camelCase and string values are coerced to the kind of
// the default field. Rows naming unknown settings or holding uncoercible values are
// skipped. An object payload is returned as is.
func (m *Merger) systemOverride(def map[string]any, payload any) map[string]any {
	if obj, ok := payload.(map[string]any); ok {
		return obj
	}
	rows, _ := payload.([]any)
	out := map[string]any{}
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		module, _ := row["module"].(string)
		setting, _ := row["setting"].(string)
		moduleKey, settingKey := camelCase(module), camelCase(setting)

		defModule, ok := def[moduleKey].(map[string]any)
		if !ok {
			m.log.Debug("skipping system row for unknown module", "module", module, "setting", setting)
			continue
		}
		defValue, ok := defModule[settingKey]
		if !ok {
			m.log.Debug("skipping system row for unknown setting", "module", module, "setting", setting)
			continue
		}
		value, ok := coerce(defValue, row["value"])
		if !ok {
			m.log.Warn("skipping system row with uncoercible value", "module", module, "setting", setting, "value", row["value"])
			continue
		}
		target, _ := out[moduleKey].(map[string]any)
		if target == nil {
			target = map[string]any{}
			out[moduleKey] = target
		}
		target[settingKey] = value
	}
	return out
}

// coerce converts v to the JSON kind of def.
func coerce(def, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch def.(type) {
	case float64:
		switch x := v.(type) {
		case float64:
			return x, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			return f, err == nil
		}
	case bool:
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			return b, err == nil
		}
	case string:
		switch x := v.(type) {
		case string:
			return x, true
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(x), true
		}
	case nil:
		return v, true
	}
	return nil, false
}

// camelCase converts snake_case and kebab-case names; camelCase input is unchanged.
func camelCase(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	upper := false
	for i, r := range s {
		if r == '_' || r == '-' {
			upper = b.Len() > 0
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
