package catalog

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pqleval/pkg/datum/datumyaml"
	"pqleval/pkg/types"
)

// file is the on-disk catalog layout:
//
//	globals:
//	  - name: orders
//	    type: "BAG<STRUCT<id: INT, total: DECIMAL(10,2)>>"
//	    value: !bag [{id: 1, total: 9.99}]
type file struct {
	Globals []struct {
		Name  string    `yaml:"name"`
		Type  string    `yaml:"type"`
		Value yaml.Node `yaml:"value"`
	} `yaml:"globals"`
}

// LoadYAML reads a catalog document. A global without a type is Dynamic; a
// global whose value does not conform to its declared type is rejected.
func LoadYAML(r io.Reader) (*Memory, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "catalog: parse")
	}

	m := NewMemory()
	for i, g := range f.Globals {
		if g.Name == "" {
			return nil, errors.Errorf("catalog: global %d has no name", i)
		}
		if _, dup, _ := m.lookup(g.Name); dup {
			return nil, errors.Errorf("catalog: global %q defined twice", g.Name)
		}

		typ := types.Dynamic()
		if g.Type != "" {
			t, err := types.Parse(g.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "catalog: global %q", g.Name)
			}
			typ = t
		}

		if g.Value.Kind == 0 {
			return nil, errors.Errorf("catalog: global %q has no value", g.Name)
		}
		value, err := datumyaml.Decode(&g.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: global %q", g.Name)
		}
		if !typ.Conforms(value) {
			return nil, errors.Errorf("catalog: global %q: value %s is not %s", g.Name, value, typ)
		}
		m.Define(Global{Name: g.Name, Type: typ, Value: value})
	}
	return m, nil
}
