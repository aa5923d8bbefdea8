package flow

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the keys of a JSON object that the Go type does not model.
// They are re-emitted verbatim when the value is marshaled again.
type Extra map[string]json.RawMessage

// Clone returns a deep copy of e.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var knownKeys sync.Map // reflect.Type -> []string

func jsonKeys(t reflect.Type) []string {
	if cached, ok := knownKeys.Load(t); ok {
		return cached.([]string)
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys = append(keys, name)
	}
	knownKeys.Store(t, keys)
	return keys
}

// decodeOpen unmarshals data into v (a pointer to a struct without custom
// JSON methods) and returns the object keys v does not declare. Only keys
// that match a field name exactly are decoded into v; case variants stay
// in the returned Extra.
func decodeOpen(data []byte, v any) (Extra, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known := make(map[string]json.RawMessage)
	for _, k := range jsonKeys(reflect.TypeOf(v).Elem()) {
		if raw, ok := all[k]; ok {
			known[k] = raw
			delete(all, k)
		}
	}
	if len(known) > 0 {
		subset, err := json.Marshal(known)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(subset, v); err != nil {
			return nil, err
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Extra(all), nil
}

// encodeOpen marshals v (a struct without custom JSON methods) and merges
// extra into the resulting object. Slices that are empty but non-nil are
// written as [] even when their field is tagged omitempty.
func encodeOpen(v any, extra Extra) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	present := presentEmptySlices(reflect.ValueOf(v))
	if len(extra) == 0 && len(present) == 0 {
		return raw, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	for _, k := range present {
		all[k] = json.RawMessage("[]")
	}
	for k, val := range extra {
		if _, ok := all[k]; !ok {
			all[k] = val
		}
	}
	return json.Marshal(all)
}

func presentEmptySlices(v reflect.Value) []string {
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Slice || f.Type.Elem().Kind() == reflect.Uint8 {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || !strings.Contains(opts, "omitempty") {
			continue
		}
		fv := v.Field(i)
		if !fv.IsNil() && fv.Len() == 0 {
			if name == "" {
				name = f.Name
			}
			keys = append(keys, name)
		}
	}
	return keys
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func clonePtr[T any](in *T, clone func(T) T) *T {
	if in == nil {
		return nil
	}
	out := clone(*in)
	return &out
}
