// Copyright © 2018 The ELPS authors

package debugger

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// maxFormatElements is the number of elements shown for collections
// before they are summarized.
const maxFormatElements = 10

// Valuer may be implemented by runtime values that know how to display
// themselves in the debugger.
type Valuer interface {
	DebugString() string
}

// Typer may be implemented by runtime values that report their own class
// name.
type Typer interface {
	DebugType() string
}

// FormatValue returns a human-readable representation of a value returned
// by the runtime, suitable for the eval command and argument displays.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case Valuer:
		return v.DebugString()
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("#<%s: %s>", TypeName(v), v.Error())
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "nil"
		}
		return formatList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "nil"
		}
		return formatMap(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		return fmt.Sprintf("#<%s>", TypeName(v))
	case reflect.Func:
		return fmt.Sprintf("#<Proc %s>", rv.Type())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatList(rv reflect.Value) string {
	if rv.Len() > maxFormatElements {
		return fmt.Sprintf("[%d elements]", rv.Len())
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = FormatValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatMap(rv reflect.Value) string {
	if rv.Len() > maxFormatElements {
		return fmt.Sprintf("{%d entries}", rv.Len())
	}
	parts := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		parts = append(parts, FormatValue(iter.Key().Interface())+" => "+FormatValue(iter.Value().Interface()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// TypeName returns the display class name of v.
func TypeName(v any) string {
	switch v := v.(type) {
	case nil:
		return "NilClass"
	case Typer:
		return v.DebugType()
	case string:
		return "String"
	case bool:
		if v {
			return "TrueClass"
		}
		return "FalseClass"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "Integer"
	case float32, float64:
		return "Float"
	case error:
		return "StandardError"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "Array"
	case reflect.Map:
		return "Hash"
	case reflect.Func:
		return "Proc"
	}
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "Object"
	}
	return t.Name()
}
