package prompt

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldsFromStruct builds prompt fields from a Go struct. The json tag
// supplies the wire name, the prompt_desc tag the description; fields whose
// json type is a pointer or carries omitempty are treated as optional.
func FieldsFromStruct(v any) ([]Field, error) {
	if v == nil {
		return nil, fmt.Errorf("prompt: struct is nil")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prompt: expected struct, got %s", t.Kind())
	}
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Tag.Get("json") == "" {
			// Embedded structs flatten, matching encoding/json.
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				sub, err := FieldsFromStruct(reflect.New(ft).Interface())
				if err != nil {
					return nil, err
				}
				fields = append(fields, sub...)
				continue
			}
		}
		name, omitempty := jsonName(f)
		if name == "" {
			continue
		}
		fields = append(fields, Field{
			Name:        name,
			Type:        typeString(f.Type),
			Required:    !omitempty && f.Type.Kind() != reflect.Pointer,
			Description: strings.TrimSpace(f.Tag.Get("prompt_desc")),
		})
	}
	return fields, nil
}

// MustFieldsFromStruct panics on error; for prompt spec literals.
func MustFieldsFromStruct(v any) []Field {
	fields, err := FieldsFromStruct(v)
	if err != nil {
		panic(err)
	}
	return fields
}

func jsonName(f reflect.StructField) (name string, omitempty bool) {
	tag := strings.TrimSpace(f.Tag.Get("json"))
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = f.Name
	}
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func typeString(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "[]" + typeString(t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", typeString(t.Key()), typeString(t.Elem()))
	case reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return "object"
	case reflect.Interface:
		return "any"
	default:
		return t.Kind().String()
	}
}
