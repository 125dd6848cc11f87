package schema

import (
	"fmt"
	"math"
)

// Kind enumerates the value types a schema field may declare.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Type describes one field type. Elem is set for lists, Fields and
// FieldOrder for structs.
type Type struct {
	Kind       Kind
	Elem       *Type
	Fields     map[string]Type
	FieldOrder []string
}

// Field pairs a name with its declared type; used to build schemas in
// declaration order.
type Field struct {
	Name string
	Type Type
}

// Schema declares the recognized fields of one item kind and their types.
// FieldOrder preserves declaration order, which drives output serialization.
type Schema struct {
	Types      map[string]Type
	FieldOrder []string
}

func String() Type { return Type{Kind: KindString} }
func Int() Type    { return Type{Kind: KindInt} }
func Float() Type  { return Type{Kind: KindFloat} }
func Bool() Type   { return Type{Kind: KindBool} }

func List(elem Type) Type { return Type{Kind: KindList, Elem: &elem} }

func Struct(fields ...Field) Type {
	t := Type{
		Kind:       KindStruct,
		Fields:     make(map[string]Type, len(fields)),
		FieldOrder: make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		t.Fields[f.Name] = f.Type
		t.FieldOrder = append(t.FieldOrder, f.Name)
	}
	return t
}

// New builds a Schema from fields in declaration order.
func New(fields ...Field) Schema {
	s := Schema{
		Types:      make(map[string]Type, len(fields)),
		FieldOrder: make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		s.Types[f.Name] = f.Type
		s.FieldOrder = append(s.FieldOrder, f.Name)
	}
	return s
}

// Has reports whether the schema declares the given field.
func (s Schema) Has(field string) bool {
	_, ok := s.Types[field]
	return ok
}

// Coerce converts a decoded JSON object to the schema's declared types.
// Fields not declared by the schema are dropped; declared fields missing
// from the input stay absent (null). A value that cannot be coerced to its
// declared type makes the whole record invalid.
func (s Schema) Coerce(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for name, v := range raw {
		t, ok := s.Types[name]
		if !ok {
			continue
		}
		if v == nil {
			continue
		}
		cv, err := coerceValue(t, v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = cv
	}
	return out, nil
}

func coerceValue(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case KindInt:
		return coerceInt(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case KindList:
		return coerceList(t, v)
	case KindStruct:
		return coerceStruct(t, v)
	default:
		return nil, fmt.Errorf("unsupported kind %v", t.Kind)
	}
}

func coerceInt(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	case float32:
		return coerceInt(float64(n))
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("expected float, got %T", v)
	}
}

func coerceList(t Type, v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]any, len(items))
	for i, item := range items {
		cv, err := coerceValue(*t.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = cv
	}
	return out, nil
}

func coerceStruct(t Type, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected struct, got %T", v)
	}
	out := make(map[string]any, len(m))
	for name, fv := range m {
		ft, ok := t.Fields[name]
		if !ok {
			continue
		}
		if fv == nil {
			continue
		}
		cv, err := coerceValue(ft, fv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = cv
	}
	return out, nil
}
