package jsonrpc2

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// parseArguments decodes request params into values of the given types.
// Params are positional when they are a JSON array. A method taking a single
// argument also accepts the bare value, which is how wallets send their
// message objects.
func parseArguments(params json.RawMessage, types []reflect.Type) ([]reflect.Value, error) {
	if len(types) == 0 {
		return nil, nil
	}
	if len(params) == 0 {
		return nil, errNoParams
	}
	if !isArray(params) || (len(types) == 1 && !acceptsArray(types[0]) && !singleElement(params)) {
		if len(types) != 1 {
			return nil, fmt.Errorf("expected %d positional arguments", len(types))
		}
		v := reflect.New(types[0])
		if err := json.Unmarshal(params, v.Interface()); err != nil {
			return nil, err
		}
		return []reflect.Value{v.Elem()}, nil
	}
	return parsePositionalArguments(params, types)
}

// parsePositionalArguments decodes a JSON array of params into values of the
// given types. Missing trailing arguments are zero values.
func parsePositionalArguments(params json.RawMessage, types []reflect.Type) ([]reflect.Value, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, err
	}
	if len(raw) > len(types) {
		return nil, fmt.Errorf("too many arguments, want at most %d", len(types))
	}
	args := make([]reflect.Value, 0, len(types))
	for i, t := range types {
		v := reflect.New(t)
		if i < len(raw) {
			if err := json.Unmarshal(raw[i], v.Interface()); err != nil {
				return nil, fmt.Errorf("invalid argument %d: %s", i, err)
			}
		}
		args = append(args, v.Elem())
	}
	return args, nil
}

var typeOfRawMessage = reflect.TypeOf(json.RawMessage{})

func acceptsArray(t reflect.Type) bool {
	return t != typeOfRawMessage && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array)
}

// singleElement is true for an array holding exactly one value.
func singleElement(params json.RawMessage) bool {
	var raw []json.RawMessage
	return json.Unmarshal(params, &raw) == nil && len(raw) == 1
}
