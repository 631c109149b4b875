// Package scenario loads YAML descriptions of successive trees and replays
// them against a reconciler backed by an in-memory host.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("scenario: invalid")

// Scenario is a named sequence of trees rendered one after another into the
// same container.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Container is the tag of the container element, "root" when empty.
	Container string `yaml:"container,omitempty"`
	Steps     []Step `yaml:"steps"`
}

type Step struct {
	Name string   `yaml:"name,omitempty"`
	Tree *NodeDef `yaml:"tree,omitempty"`
	// Unmount tears the container down instead of rendering Tree.
	Unmount bool `yaml:"unmount,omitempty"`
}

// NodeDef describes a host element, or a bare text node when Type is empty.
type NodeDef struct {
	Type     string            `yaml:"type,omitempty"`
	Key      string            `yaml:"key,omitempty"`
	Text     string            `yaml:"text,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
	Children []*NodeDef        `yaml:"children,omitempty"`
}

func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %s: steps must be non-empty", ErrInvalid, s.Name)
	}
	for i, step := range s.Steps {
		if step.Unmount && step.Tree != nil {
			return fmt.Errorf("%w: step %d: unmount and tree are exclusive", ErrInvalid, i)
		}
		if step.Tree == nil {
			continue
		}
		if err := step.Tree.validate(fmt.Sprintf("steps[%d].tree", i)); err != nil {
			return err
		}
	}
	return nil
}

func (n *NodeDef) validate(path string) error {
	if n == nil {
		return fmt.Errorf("%w: %s: empty node", ErrInvalid, path)
	}
	if n.Type == "" {
		if n.Key != "" || len(n.Attrs) > 0 || len(n.Style) > 0 || len(n.Children) > 0 {
			return fmt.Errorf("%w: %s: text nodes only carry text", ErrInvalid, path)
		}
		return nil
	}
	for i, c := range n.Children {
		if err := c.validate(fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Element converts the definition into a descriptor tree.
func (n *NodeDef) Element() fiber.Node {
	if n.Type == "" {
		return n.Text
	}

	props := fiber.Props{}
	for k, v := range n.Attrs {
		props[k] = v
	}
	if len(n.Style) > 0 {
		style := make(map[string]any, len(n.Style))
		for k, v := range n.Style {
			style[k] = v
		}
		props["style"] = style
	}
	if n.Key != "" {
		props["key"] = n.Key
	}

	children := make([]fiber.Node, 0, len(n.Children)+1)
	if n.Text != "" {
		children = append(children, n.Text)
	}
	for _, c := range n.Children {
		children = append(children, c.Element())
	}
	return fiber.H(n.Type, props, children...)
}

// StepResult is the host state after a step along with the operations the
// step performed.
type StepResult struct {
	Name        string
	Ops         []memhost.Op
	Counts      map[memhost.OpKind]int
	Markup      string
	Fingerprint uint64
}

// Run replays every step of s in order against a fresh host.
func Run(s *Scenario, opts ...fiber.Option) ([]StepResult, error) {
	h := memhost.New()
	tag := s.Container
	if tag == "" {
		tag = "root"
	}
	container := h.NewContainer(tag)

	r, err := fiber.New(h, opts...)
	if err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		h.Reset()
		if step.Unmount {
			if err := r.Unmount(container); err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
		} else {
			var el fiber.Node
			if step.Tree != nil {
				el = step.Tree.Element()
			}
			r.Mount(el, container, nil)
			r.Flush()
		}

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		results = append(results, StepResult{
			Name:        name,
			Ops:         h.Ops(),
			Counts:      h.Counts(),
			Markup:      memhost.InnerMarkup(container),
			Fingerprint: memhost.Fingerprint(container),
		})
	}
	return results, nil
}

// Report renders results as plain text, one block per step.
func Report(results []StepResult) string {
	var sb strings.Builder
	for _, res := range results {
		fmt.Fprintf(&sb, "== %s (%d ops)\n", res.Name, len(res.Ops))
		for _, op := range res.Ops {
			sb.WriteString(op.String())
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "markup: %s\n", res.Markup)
	}
	return sb.String()
}
