package xmlrpc

import (
	"errors"
	"reflect"
	"strings"
	"time"
)

// assignResult assigns a decoded value into the value pointed to by result.
func assignResult(result interface{}, value interface{}) error {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("xmlrpc: result must be a non-nil pointer")
	}
	return assign(rv.Elem(), value)
}

// toInt64 converts any decoded integer kind.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// assign sets dst, which must be settable, from a decoded value.
func assign(dst reflect.Value, src interface{}) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		sv := reflect.ValueOf(src)
		if !sv.Type().AssignableTo(dst.Type()) {
			return AssignError{src, dst.Type()}
		}
		dst.Set(sv)
		return nil
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), src)
	}

	if dst.Type() == typeOfTime {
		t, ok := src.(time.Time)
		if !ok {
			return AssignError{src, dst.Type()}
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return AssignError{src, dst.Type()}
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(src)
		if !ok || dst.OverflowInt(n) {
			return AssignError{src, dst.Type()}
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := toInt64(src)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return AssignError{src, dst.Type()}
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		var f float64
		switch v := src.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		default:
			n, ok := toInt64(src)
			if !ok {
				return AssignError{src, dst.Type()}
			}
			f = float64(n)
		}
		dst.SetFloat(f)
	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return AssignError{src, dst.Type()}
		}
		dst.SetString(s)
	case reflect.Slice:
		if b, ok := src.([]byte); ok && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes(append([]byte(nil), b...))
			return nil
		}
		items, ok := src.([]interface{})
		if !ok {
			return AssignError{src, dst.Type()}
		}
		slice := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(slice.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(slice)
	case reflect.Array:
		if b, ok := src.([]byte); ok && dst.Type().Elem().Kind() == reflect.Uint8 {
			if len(b) != dst.Len() {
				return AssignError{src, dst.Type()}
			}
			reflect.Copy(dst, reflect.ValueOf(b))
			return nil
		}
		items, ok := src.([]interface{})
		if !ok || len(items) != dst.Len() {
			return AssignError{src, dst.Type()}
		}
		for i, item := range items {
			if err := assign(dst.Index(i), item); err != nil {
				return err
			}
		}
	case reflect.Map:
		members, ok := src.(map[string]interface{})
		if !ok || dst.Type().Key().Kind() != reflect.String {
			return AssignError{src, dst.Type()}
		}
		m := reflect.MakeMapWithSize(dst.Type(), len(members))
		keyType, elemType := dst.Type().Key(), dst.Type().Elem()
		for k, v := range members {
			elem := reflect.New(elemType).Elem()
			if err := assign(elem, v); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(keyType), elem)
		}
		dst.Set(m)
	case reflect.Struct:
		members, ok := src.(map[string]interface{})
		if !ok {
			return AssignError{src, dst.Type()}
		}
		for _, f := range structFields(dst.Type()) {
			v, ok := lookupMember(members, f.name)
			if !ok {
				continue
			}
			if err := assign(dst.FieldByIndex(f.index), v); err != nil {
				return err
			}
		}
	default:
		return AssignError{src, dst.Type()}
	}
	return nil
}

// lookupMember finds a struct member by exact name, falling back to a
// case-insensitive match.
func lookupMember(members map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := members[name]; ok {
		return v, true
	}
	for k, v := range members {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
