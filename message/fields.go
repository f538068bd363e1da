package message

import (
	"bytes"
	"encoding/json"
)

// fields holds the raw members of a JSON object so that keys this package
// does not know about survive a decode/encode round trip.
type fields map[string]json.RawMessage

func (f fields) has(key string) bool {
	raw, ok := f[key]
	return ok && !isNull(raw)
}

// take decodes key into v and removes it from the set.
func (f fields) take(key string, v interface{}) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	delete(f, key)
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (f fields) put(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f[key] = raw
	return nil
}

func (f fields) clone() fields {
	r := make(fields, len(f)+8)
	for k, v := range f {
		r[k] = v
	}
	return r
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
