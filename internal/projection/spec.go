package projection

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ── Spec ───────────────────────────────────────────────────
// A Spec declares which fields of a record, and of its related records,
// appear in serialized output. Specs are built once per use case and never
// mutated afterwards, so one value can be shared by concurrent requests.
//
// JSON form:
//
//	{"except": ["updated_at"],
//	 "include": {"bird": {"only": ["name", "species"]}}}

// Spec is the declarative projection for one level of a record tree.
//
// A nil Only means "not set": every own field minus Except is emitted.
// A non-nil Only (even empty) restricts output to exactly those fields and
// takes precedence over Except.
type Spec struct {
	Only    []string
	Except  []string
	Include []Inclusion
}

// Inclusion pairs a relation name with the Spec applied to the related record(s).
type Inclusion struct {
	Relation string
	Spec     Spec
}

// Include is shorthand for building an Inclusion.
func Include(relation string, spec Spec) Inclusion {
	return Inclusion{Relation: relation, Spec: spec}
}

// Only is shorthand for a Spec that keeps exactly the given fields.
func Only(fields ...string) Spec {
	if fields == nil {
		fields = []string{}
	}
	return Spec{Only: fields}
}

// Except is shorthand for a Spec that drops the given fields.
func Except(fields ...string) Spec {
	return Spec{Except: fields}
}

// With returns a copy of s with the inclusions appended.
func (s Spec) With(inc ...Inclusion) Spec {
	out := s
	out.Include = append(append([]Inclusion(nil), s.Include...), inc...)
	return out
}

// IsZero reports whether s is the empty spec (all own fields, no relations).
func (s Spec) IsZero() bool {
	return s.Only == nil && len(s.Except) == 0 && len(s.Include) == 0
}

// ── JSON ───────────────────────────────────────────────────

type specJSON struct {
	Only    *[]string   `json:"only,omitempty"`
	Except  []string    `json:"except,omitempty"`
	Include includeList `json:"include,omitempty"`
}

// MarshalJSON writes "only" whenever it is set, so an empty list keeps
// meaning "no own fields" after a round trip.
func (s Spec) MarshalJSON() ([]byte, error) {
	raw := specJSON{Except: s.Except, Include: includeList(s.Include)}
	if s.Only != nil {
		only := s.Only
		raw.Only = &only
	}
	return json.Marshal(raw)
}

// UnmarshalJSON rejects keys other than only, except and include.
func (s *Spec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw specJSON
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*s = Spec{Except: raw.Except, Include: []Inclusion(raw.Include)}
	if raw.Only != nil {
		s.Only = *raw.Only
		if s.Only == nil {
			s.Only = []string{}
		}
	}
	return nil
}

// includeList keeps the declaration order of the "include" object,
// which encoding/json would lose when decoding into a map.
type includeList []Inclusion

func (l includeList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, inc := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(inc.Relation)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(inc.Spec)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either an object of relation → spec, or an array of
// relation names (each included with the empty spec).
func (l *includeList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case nil:
		*l = nil
		return nil
	case json.Delim('['):
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("include: %w", err)
		}
		out := make(includeList, 0, len(names))
		for _, name := range names {
			out = append(out, Inclusion{Relation: name})
		}
		*l = out
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("include: expected object or array, got %v", tok)
	}

	var out includeList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("include: unexpected key %v", keyTok)
		}
		var sub Spec
		if err := dec.Decode(&sub); err != nil {
			return fmt.Errorf("include %q: %w", name, err)
		}
		out = append(out, Inclusion{Relation: name, Spec: sub})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// ParseSpec decodes a Spec from its JSON form.
func ParseSpec(data string) (Spec, error) {
	var s Spec
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return Spec{}, fmt.Errorf("parse projection: %w", err)
	}
	return s, nil
}
