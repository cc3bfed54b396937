package clvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	// NamedArg pairs an argument name with its typed value.
	NamedArg struct {
		Name  string
		Value Value
	}

	// Args is an ordered argument set. Order is significant: it is preserved in
	// the canonical encoding and therefore affects deploy hashes. Names must be
	// unique within a set.
	Args []NamedArg
)

// NewArgs parses a sequence of simple-arg specs into an argument set,
// preserving input order. The first malformed spec or duplicate name aborts
// the whole build.
func NewArgs(specs []string) (Args, error) {
	args := make(Args, 0, len(specs))
	for _, spec := range specs {
		arg, err := ParseSimple(spec)
		if err != nil {
			return nil, err
		}
		if err := args.insert(arg); err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (a Args) insert(arg NamedArg) error {
	for _, existing := range a {
		if existing.Name == arg.Name {
			return fmt.Errorf("duplicate argument name %q", arg.Name)
		}
	}
	return nil
}

// Insert appends a named value, rejecting duplicate names.
func (a *Args) Insert(name string, value Value) error {
	arg := NamedArg{Name: name, Value: value}
	if err := a.insert(arg); err != nil {
		return err
	}
	*a = append(*a, arg)
	return nil
}

// Get returns the value for name and whether it is present.
func (a Args) Get(name string) (Value, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// Bytes returns the canonical encoding: u32 count followed by each argument's
// name and containerized value, in set order.
func (a Args) Bytes() []byte {
	var buf bytes.Buffer
	writeU32(&buf, uint32(len(a)))
	for _, arg := range a {
		writeString(&buf, arg.Name)
		buf.Write(arg.Value.ToBytes())
	}
	return buf.Bytes()
}

// ArgsFromBytes decodes a canonical argument set encoding.
func ArgsFromBytes(b []byte) (Args, error) {
	r := bytes.NewReader(b)
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading argument count: %w", err)
	}
	args := make(Args, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("reading argument %d name: %w", i, err)
		}
		value, err := readContainer(r)
		if err != nil {
			return nil, fmt.Errorf("reading argument %q: %w", name, err)
		}
		if err := args.Insert(name, value); err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after argument set", r.Len())
	}
	return args, nil
}

// MarshalJSON renders the node schema form: an array of [name, value] pairs.
func (a Args) MarshalJSON() ([]byte, error) {
	pairs := make([][2]json.RawMessage, 0, len(a))
	for _, arg := range a {
		name, err := json.Marshal(arg.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling argument %q: %w", arg.Name, err)
		}
		pairs = append(pairs, [2]json.RawMessage{name, value})
	}
	return json.Marshal(pairs)
}

func (a *Args) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decoding argument list: %w", err)
	}
	args := make(Args, 0, len(pairs))
	for _, pair := range pairs {
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return fmt.Errorf("decoding argument name: %w", err)
		}
		var value Value
		if err := json.Unmarshal(pair[1], &value); err != nil {
			return fmt.Errorf("decoding argument %q: %w", name, err)
		}
		if err := args.Insert(name, value); err != nil {
			return err
		}
	}
	*a = args
	return nil
}
