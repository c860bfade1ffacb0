// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Counter is the name of a single statistic shown on the banner.
type Counter string

const (
	Followers        Counter = "followers"
	Repos            Counter = "repos"
	Stars            Counter = "stars"
	Commits          Counter = "commits"
	ContributedRepos Counter = "contributed_repos"
	CodeBytes        Counter = "code_bytes"
	TopLanguages     Counter = "top_languages"
	Age              Counter = "age"
)

// Kind tells which variant a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindText
)

// Value is either an integer or a piece of text.
// The zero value is the integer 0.
type Value struct {
	kind Kind
	n    int
	s    string
}

// Int returns an integer Value.
func Int(n int) Value { return Value{kind: KindInt, n: n} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

func (v Value) Kind() Kind { return v.kind }

// Format renders the value for display. Integers get thousands separators.
func (v Value) Format() string {
	if v.kind == KindText {
		return v.s
	}
	return humanize.Comma(int64(v.n))
}

// Raw renders the value without any grouping.
func (v Value) Raw() string {
	if v.kind == KindText {
		return v.s
	}
	return strconv.Itoa(v.n)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindText {
		return json.Marshal(v.s)
	}
	return json.Marshal(v.n)
}

// Snapshot holds the counters fetched during one run, in insertion order.
type Snapshot struct {
	names  []Counter
	values map[Counter]Value
}

// NewSnapshot creates an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[Counter]Value)}
}

// Set stores a value. Setting an existing counter replaces it in place.
func (s *Snapshot) Set(name Counter, v Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns the value for a counter and whether it is present.
func (s *Snapshot) Get(name Counter) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the counters in the order they were first set.
func (s *Snapshot) Names() []Counter {
	return append([]Counter(nil), s.names...)
}

func (s *Snapshot) Len() int { return len(s.names) }

// MarshalJSON encodes the snapshot as a JSON object keeping insertion order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(name))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.values[name])
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

// Field binds a placeholder element of a document to a counter.
type Field struct {
	// ID is the id attribute of the value element. Its padding element is ID + "_dots".
	ID      string  `mapstructure:"id" json:"id"`
	Counter Counter `mapstructure:"counter" json:"counter"`
	// Width is the column width the value and its dot padding fill together.
	Width int `mapstructure:"width" json:"width"`
	// Plain fields are written as is, without separators or padding.
	Plain bool `mapstructure:"plain" json:"plain"`
}
