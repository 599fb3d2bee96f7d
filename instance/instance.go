// Package instance reads and writes allocation instances as YAML (JSON
// documents are accepted too, being valid YAML).
//
//	items: [a, b, c]
//	agents:
//	  - name: Alice
//	    values: {a: 1, b: 2, c: 0.5}
//	  - name: Bob
//	    values: {a: 3, b: 1, c: 1}
//
// When items is omitted, the sorted keys of the first agent's values are
// used. The codec checks structure only; value sanity is left to the
// allocation engine.
package instance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/fairdiv/valuation"
)

var (
	// ErrEmpty indicates a document without agents.
	ErrEmpty = errors.New("instance: no agents")

	// ErrNotAdditive indicates an agent whose valuation cannot be listed
	// item by item.
	ErrNotAdditive = errors.New("instance: valuation undefined on an item")
)

// Instance is the serialised form of an allocation problem.
type Instance struct {
	Items  []valuation.Item `yaml:"items,omitempty"`
	Agents []AgentSpec      `yaml:"agents"`
}

// AgentSpec is one agent with its additive values.
type AgentSpec struct {
	Name   string             `yaml:"name"`
	Values map[string]float64 `yaml:"values"`
}

// Decode parses one instance from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var in Instance
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}

		return nil, fmt.Errorf("instance: decode: %w", err)
	}
	if len(in.Agents) == 0 {
		return nil, ErrEmpty
	}
	if len(in.Items) == 0 {
		for it := range in.Agents[0].Values {
			in.Items = append(in.Items, it)
		}
		sort.Strings(in.Items)
	}

	return &in, nil
}

// Load reads the instance stored at path.
func Load(path string) (*Instance, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return in, nil
}

// Encode writes in as YAML.
func (in *Instance) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("instance: encode: %w", err)
	}

	return enc.Close()
}

// Save writes in to path, creating or truncating the file.
func (in *Instance) Save(path string) error {
	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ToAgents converts the specs into agents with Additive valuations, in
// document order. A nil values map yields an empty valuation.
func (in *Instance) ToAgents() []valuation.Agent {
	out := make([]valuation.Agent, len(in.Agents))
	for i, a := range in.Agents {
		v := make(valuation.Additive, len(a.Values))
		for it, x := range a.Values {
			v[it] = x
		}
		out[i] = valuation.Agent{Name: a.Name, Valuation: v}
	}

	return out
}

// FromAgents captures agents' values over items. Every valuation must be
// defined on every item.
func FromAgents(agents []valuation.Agent, items []valuation.Item) (*Instance, error) {
	in := &Instance{
		Items:  append([]valuation.Item(nil), items...),
		Agents: make([]AgentSpec, len(agents)),
	}
	for i, a := range agents {
		values := make(map[string]float64, len(items))
		for _, it := range items {
			x, err := valuation.MustValue(a.Valuation, it)
			if err != nil {
				return nil, fmt.Errorf("%w: agent %q: %v", ErrNotAdditive, a.Name, err)
			}
			values[it] = x
		}
		in.Agents[i] = AgentSpec{Name: a.Name, Values: values}
	}

	return in, nil
}
