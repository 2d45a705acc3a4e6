// Package bindings parses user key-binding files into a typed model.
//
// A bindings file is an XML document whose Root element carries the preset
// name and version. Each child is a button binding (Primary/Secondary
// children), an axis binding (Binding child), a single Value option or the
// keyboard layout.
package bindings

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrNotBindings is returned when the document root is not a bindings Root element.
var ErrNotBindings = errors.New("bindings: not a bindings document")

// Element and attribute names of the bindings document.
const (
	elemRoot           = "Root"
	elemKeyboardLayout = "KeyboardLayout"
	elemPrimary        = "Primary"
	elemSecondary      = "Secondary"
	elemModifier       = "Modifier"
	elemBinding        = "Binding"
	elemInverted       = "Inverted"
	elemDeadzone       = "Deadzone"

	attrPresetName   = "PresetName"
	attrMajorVersion = "MajorVersion"
	attrMinorVersion = "MinorVersion"
	attrDevice       = "Device"
	attrKey          = "Key"
	attrValue        = "Value"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Preset is a parsed bindings file.
type Preset struct {
	Name           string `json:"name" yaml:"name" toml:"name"`
	MajorVersion   int    `json:"major_version" yaml:"major_version" toml:"major_version"`
	MinorVersion   int    `json:"minor_version" yaml:"minor_version" toml:"minor_version"`
	KeyboardLayout string `json:"keyboard_layout,omitempty" yaml:"keyboard_layout,omitempty" toml:"keyboard_layout,omitempty"`

	// Settings holds top-level options that only carry a Value attribute.
	Settings map[string]string      `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
	Bindings map[string]Binding     `json:"bindings" yaml:"bindings" toml:"bindings"`
	Axes     map[string]AxisBinding `json:"axes,omitempty" yaml:"axes,omitempty" toml:"axes,omitempty"`

	// order keeps the document order of top-level elements for WriteTo.
	order []string
}

// NewPreset creates an empty preset.
func NewPreset(name string) *Preset {
	return &Preset{
		Name:     name,
		Settings: make(map[string]string),
		Bindings: make(map[string]Binding),
		Axes:     make(map[string]AxisBinding),
	}
}

// Binding returns the button binding with the given name.
func (p *Preset) Binding(name string) (Binding, bool) {
	b, ok := p.Bindings[name]
	return b, ok
}

// Axis returns the axis binding with the given name.
func (p *Preset) Axis(name string) (AxisBinding, bool) {
	a, ok := p.Axes[name]
	return a, ok
}

// Names returns the sorted names of all button bindings.
func (p *Preset) Names() []string {
	names := make([]string, 0, len(p.Bindings))
	for name := range p.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Version returns the preset version as "major.minor".
func (p *Preset) Version() string {
	return fmt.Sprintf("%d.%d", p.MajorVersion, p.MinorVersion)
}

// node is a generic element tree used to walk the document.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) lookupAttr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) attr(name string) string {
	v, _ := n.lookupAttr(name)
	return v
}

func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

// ParseFile reads and parses the bindings file at path.
func ParseFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings file %q: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse parses a bindings document.
// Elements that are neither bindings, axes nor Value options are ignored.
func Parse(r io.Reader) (*Preset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bindings: read: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("bindings: parse: %w", err)
	}
	if root.XMLName.Local != elemRoot {
		return nil, fmt.Errorf("%w: root element is %q", ErrNotBindings, root.XMLName.Local)
	}

	p := NewPreset(root.attr(attrPresetName))
	if p.MajorVersion, err = versionAttr(&root, attrMajorVersion); err != nil {
		return nil, err
	}
	if p.MinorVersion, err = versionAttr(&root, attrMinorVersion); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(root.Nodes))
	for i := range root.Nodes {
		n := &root.Nodes[i]
		name := n.XMLName.Local

		switch {
		case name == elemKeyboardLayout:
			p.KeyboardLayout = strings.TrimSpace(n.Content)
		default:
			if b, ok := bindingFromNode(n); ok {
				p.Bindings[name] = b
				break
			}
			a, ok, err := axisFromNode(n)
			if err != nil {
				return nil, err
			}
			if ok {
				p.Axes[name] = a
				break
			}
			v, ok := n.lookupAttr(attrValue)
			if !ok {
				continue
			}
			p.Settings[name] = v
		}

		if !seen[name] {
			seen[name] = true
			p.order = append(p.order, name)
		}
	}
	return p, nil
}

func versionAttr(n *node, name string) (int, error) {
	v, ok := n.lookupAttr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("bindings: invalid %s %q: %w", name, v, err)
	}
	return i, nil
}
