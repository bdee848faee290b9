package xmlrpc

import (
	"reflect"
	"strings"
	"sync"
)

// field is an encodable struct field.
type field struct {
	name      string
	index     []int
	omitEmpty bool
}

var fieldCache sync.Map // map[reflect.Type][]field

// structFields returns the exported fields of a struct type, honoring
// `xmlrpc:"name,omitempty"` tags. Untagged embedded structs are flattened.
func structFields(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}
	fields := appendFields(nil, t, nil)
	fieldCache.Store(t, fields)
	return fields
}

func appendFields(fields []field, t reflect.Type, parent []int) []field {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("xmlrpc")
		if tag == "-" {
			continue
		}
		name, opts := tag, ""
		if idx := strings.Index(tag, ","); idx >= 0 {
			name, opts = tag[:idx], tag[idx+1:]
		}

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			fields = appendFields(fields, f.Type, index)
			continue
		}
		if f.PkgPath != "" {
			// Unexported
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields = append(fields, field{
			name:      name,
			index:     index,
			omitEmpty: opts == "omitempty",
		})
	}
	return fields
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
