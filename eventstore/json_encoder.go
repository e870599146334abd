package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/aneshas/bankaccount/account"
)

// NewJSONEncoder constructs a json encoder for the given event types
// (pass zero values, eg. account.Events()...)
func NewJSONEncoder(events ...account.Event) *JSONEncoder {
	enc := JSONEncoder{
		types: make(map[string]reflect.Type, len(events)),
	}

	for _, evt := range events {
		t := reflect.TypeOf(evt)
		enc.types[t.Name()] = t
	}

	return &enc
}

// JSONEncoder stores events as json under their type name
type JSONEncoder struct {
	types map[string]reflect.Type
}

// Encode marshals the event to json
func (e *JSONEncoder) Encode(evt account.Event) (Encoded, error) {
	if evt == nil {
		return Encoded{}, errors.New("can't encode nil event")
	}

	name := reflect.TypeOf(evt).Name()

	if _, ok := e.types[name]; !ok {
		return Encoded{}, fmt.Errorf("%w: %s", ErrEventNotRegistered, name)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{Type: name, Data: string(data)}, nil
}

// Decode unmarshals the event into its registered type.
// ErrEventNotRegistered is returned for unknown types
func (e *JSONEncoder) Decode(enc Encoded) (account.Event, error) {
	t, ok := e.types[enc.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotRegistered, enc.Type)
	}

	v := reflect.New(t)

	if err := json.Unmarshal([]byte(enc.Data), v.Interface()); err != nil {
		return nil, fmt.Errorf("%s: %w", enc.Type, err)
	}

	evt, ok := v.Elem().Interface().(account.Event)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an account event", ErrEventNotRegistered, enc.Type)
	}

	return evt, nil
}
