// Package planyaml reads and writes plan trees as YAML documents.
//
// Every node is a mapping with an "op" key naming the node and one key per
// parameter:
//
//	op: select
//	input:
//	  op: filter
//	  input: {op: scan, source: {op: global, name: orders}, as: o}
//	  predicate:
//	    op: binary
//	    operator: ">"
//	    left: {op: field, root: {op: var, name: o}, name: total}
//	    right: {op: lit, value: 100}
//	project: {op: var, name: o}
//
// Literal values use the datumyaml encoding.
package planyaml

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pqleval/pkg/plan"
)

type doc struct {
	Op string `yaml:"op"`

	Name            string     `yaml:"name,omitempty"`
	Value           yaml.Node  `yaml:"value,omitempty"`
	CaseInsensitive bool       `yaml:"ci,omitempty"`
	Root            *doc       `yaml:"root,omitempty"`
	Index           *doc       `yaml:"index,omitempty"`
	Operator        string     `yaml:"operator,omitempty"`
	Test            string     `yaml:"test,omitempty"`
	Not             bool       `yaml:"not,omitempty"`
	Arg             *doc       `yaml:"arg,omitempty"`
	Args            []*doc     `yaml:"args,omitempty"`
	Left            *doc       `yaml:"left,omitempty"`
	Right           *doc       `yaml:"right,omitempty"`
	Set             *doc       `yaml:"set,omitempty"`
	Branches        []branch   `yaml:"branches,omitempty"`
	Else            *doc       `yaml:"else,omitempty"`
	Fields          []field    `yaml:"fields,omitempty"`
	Type            string     `yaml:"type,omitempty"`
	Fn              string     `yaml:"fn,omitempty"`
	Distinct        bool       `yaml:"distinct,omitempty"`
	Query           *doc       `yaml:"query,omitempty"`
	Input           *doc       `yaml:"input,omitempty"`
	Project         *doc       `yaml:"project,omitempty"`
	Key             *doc       `yaml:"key,omitempty"`

	Source    *doc       `yaml:"source,omitempty"`
	As        string     `yaml:"as,omitempty"`
	At        string     `yaml:"at,omitempty"`
	Kind      string     `yaml:"kind,omitempty"`
	All       bool       `yaml:"all,omitempty"`
	On        *doc       `yaml:"on,omitempty"`
	Predicate *doc       `yaml:"predicate,omitempty"`
	Specs     []sortSpec `yaml:"specs,omitempty"`
	Count     *doc       `yaml:"count,omitempty"`
	Paths     []string   `yaml:"paths,omitempty"`
	Keys      []groupKey `yaml:"keys,omitempty"`
	Calls     []aggCall  `yaml:"calls,omitempty"`
	GroupAs   string     `yaml:"group_as,omitempty"`
}

type branch struct {
	When *doc `yaml:"when"`
	Then *doc `yaml:"then"`
}

// field is a struct constructor entry. Name is shorthand for a string key.
type field struct {
	Name  string `yaml:"name,omitempty"`
	Key   *doc   `yaml:"key,omitempty"`
	Value *doc   `yaml:"value"`
}

type sortSpec struct {
	Key   *doc   `yaml:"key"`
	Desc  bool   `yaml:"desc,omitempty"`
	Nulls string `yaml:"nulls,omitempty"`
}

type groupKey struct {
	Expr *doc   `yaml:"expr"`
	Name string `yaml:"name,omitempty"`
}

type aggCall struct {
	Fn       string `yaml:"fn"`
	Distinct bool   `yaml:"distinct,omitempty"`
	Arg      *doc   `yaml:"arg,omitempty"`
	Name     string `yaml:"name"`
}

// Decode reads one plan document from r. Unknown keys are rejected.
func Decode(r io.Reader) (plan.Rex, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d doc
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return nil, errors.New("planyaml: empty document")
		}
		return nil, errors.Wrap(err, "planyaml: parse")
	}
	return toRex(&d)
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (plan.Rex, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes root to w as one YAML document.
func Encode(w io.Writer, root plan.Rex) error {
	d, err := fromRex(root)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(err, "planyaml: encode")
	}
	return enc.Close()
}

// Marshal is Encode into a byte slice.
func Marshal(root plan.Rex) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
