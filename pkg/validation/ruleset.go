package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
)

// FieldRule is the compiled constraint list of one field.
type FieldRule struct {
	Field       string
	Constraints []Constraint
}

// RuleSet holds the field rules of one entity type in declaration order.
type RuleSet struct {
	EntityType string
	Fields     []FieldRule
}

// Empty reports whether the rule set has no field rules.
func (rs RuleSet) Empty() bool {
	return len(rs.Fields) == 0
}

// Check evaluates every constraint of every field against candidate and returns one
// error per failed constraint, in field order. Fields without rules are not checked.
// A nil or non-object candidate has no keys: only Required constraints can fail on it.
func (rs RuleSet) Check(candidate any) []ValidationError {
	values, isObject := normalizeCandidate(candidate)
	var errs []ValidationError
	for _, rule := range rs.Fields {
		value := values[rule.Field]
		for _, c := range rule.Constraints {
			if _, required := c.(Required); !isObject && !required {
				continue
			}
			if msg := c.Check(rule.Field, value); msg != "" {
				errs = append(errs, ValidationError{Field: rule.Field, Message: msg})
			}
		}
	}
	return errs
}

// NewRuleSet compiles descriptors given as ordered (field, descriptor) pairs.
func NewRuleSet(entityType string, fields []string, descriptors map[string]Descriptor) RuleSet {
	rs := RuleSet{EntityType: entityType}
	for _, field := range fields {
		d, ok := descriptors[field]
		if !ok {
			continue
		}
		constraints, _ := d.Compile()
		if len(constraints) > 0 {
			rs.Fields = append(rs.Fields, FieldRule{Field: field, Constraints: constraints})
		}
	}
	return rs
}

// ParseRuleSet reads the rules of entityType from a payload shaped
// {entityType: {field: descriptor}}, keeping the payload's field order.
// Fields whose descriptor cannot be decoded or yields no constraint are skipped.
func ParseRuleSet(entityType string, data []byte, log logger.Logger) (RuleSet, error) {
	log = logger.OrNop(log)
	rs := RuleSet{EntityType: entityType}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return rs, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return rs, err
		}
		if key != entityType {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return rs, fmt.Errorf("read rules of %s: %w", key, err)
			}
			continue
		}
		fields, err := parseFields(dec, entityType, log)
		if err != nil {
			return rs, err
		}
		rs.Fields = fields
	}
	return rs, nil
}

func parseFields(dec *json.Decoder, entityType string, log logger.Logger) ([]FieldRule, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("rules of %s: %w", entityType, err)
	}
	var fields []FieldRule
	for dec.More() {
		field, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read descriptor of %s.%s: %w", entityType, field, err)
		}

		var d Descriptor
		if err := json.Unmarshal(raw, &d); err != nil {
			log.Warn("skipping malformed constraint descriptor", "entity_type", entityType, "field", field, "error", err)
			continue
		}
		constraints, err := d.Compile()
		if err != nil {
			log.Warn("dropping invalid constraint", "entity_type", entityType, "field", field, "error", err)
		}
		if len(constraints) == 0 {
			continue
		}
		fields = append(fields, FieldRule{Field: field, Constraints: constraints})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("expected %q, got end of input", want)
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
