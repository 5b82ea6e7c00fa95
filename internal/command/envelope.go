package command

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is an inbound command: {"command": name, ...named arguments}.
type Envelope struct {
	Name string
	Args map[string]json.RawMessage
}

// NewEnvelope builds an envelope from Go values.
func NewEnvelope(name string, args map[string]any) (Envelope, error) {
	env := Envelope{Name: name, Args: make(map[string]json.RawMessage, len(args))}
	for k, v := range args {
		raw, err := json.Marshal(v)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, k, err)
		}
		env.Args[k] = raw
	}
	return env, nil
}

// ParseEnvelope decodes a command envelope. A missing or non-string
// "command" yields an empty Name, which no registry accepts.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	var env Envelope
	if name, ok := fields["command"]; ok {
		_ = json.Unmarshal(name, &env.Name) //nolint:errcheck // non-string names stay empty
		delete(fields, "command")
	}
	env.Args = fields
	return env, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(raw []byte) error {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Args)+1)
	for k, v := range e.Args {
		out[k] = v
	}
	name, err := json.Marshal(e.Name)
	if err != nil {
		return nil, err
	}
	out["command"] = name
	return json.Marshal(out)
}

// Decode binds the named arguments to the fields of v. Unknown argument
// names are rejected.
func (e Envelope) Decode(v any) error {
	args := e.Args
	if args == nil {
		args = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgs, e.Name, err)
	}
	return nil
}
