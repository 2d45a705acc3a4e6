package bindings

import (
	"fmt"
	"strconv"
	"strings"
)

// Binding is a button binding with a primary and a secondary combination.
type Binding struct {
	Name      string               `json:"name" yaml:"name" toml:"name"`
	Primary   DeviceKeyCombination `json:"primary" yaml:"primary" toml:"primary"`
	Secondary DeviceKeyCombination `json:"secondary" yaml:"secondary" toml:"secondary"`

	// Settings holds the Value of option children such as ToggleOn.
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
}

// IsDefined reports whether either combination is assigned.
func (b Binding) IsDefined() bool {
	return b.Primary.IsDefined() || b.Secondary.IsDefined()
}

// bindingFromNode builds a Binding from an element with Primary and/or
// Secondary children. It returns false for any other element.
func bindingFromNode(n *node) (Binding, bool) {
	primary := combinationFromNode(n.child(elemPrimary))
	secondary := combinationFromNode(n.child(elemSecondary))
	if primary == nil && secondary == nil {
		return Binding{}, false
	}

	b := Binding{
		Name:      n.XMLName.Local,
		Primary:   Undefined,
		Secondary: Undefined,
		Settings:  valueChildren(n, elemPrimary, elemSecondary),
	}
	if primary != nil {
		b.Primary = *primary
	}
	if secondary != nil {
		b.Secondary = *secondary
	}
	return b, true
}

func combinationFromNode(n *node) *DeviceKeyCombination {
	if n == nil {
		return nil
	}
	c := &DeviceKeyCombination{
		Device: n.attr(attrDevice),
		Key:    n.attr(attrKey),
	}
	for i := range n.Nodes {
		m := &n.Nodes[i]
		if m.XMLName.Local != elemModifier {
			continue
		}
		c.Modifiers = append(c.Modifiers, DeviceKey{Device: m.attr(attrDevice), Key: m.attr(attrKey)})
	}
	return c
}

// AxisBinding is an analogue axis binding.
type AxisBinding struct {
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Binding  DeviceKey `json:"binding" yaml:"binding" toml:"binding"`
	Inverted bool      `json:"inverted" yaml:"inverted" toml:"inverted"`
	Deadzone float64   `json:"deadzone" yaml:"deadzone" toml:"deadzone"`

	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
}

// axisFromNode builds an AxisBinding from an element with a Binding child.
func axisFromNode(n *node) (AxisBinding, bool, error) {
	b := n.child(elemBinding)
	if b == nil {
		return AxisBinding{}, false, nil
	}

	a := AxisBinding{
		Name:     n.XMLName.Local,
		Binding:  DeviceKey{Device: b.attr(attrDevice), Key: b.attr(attrKey)},
		Settings: valueChildren(n, elemBinding, elemInverted, elemDeadzone),
	}
	if inv := n.child(elemInverted); inv != nil {
		a.Inverted = inv.attr(attrValue) == "1"
	}
	if dz := n.child(elemDeadzone); dz != nil {
		v := strings.TrimSpace(dz.attr(attrValue))
		if v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return AxisBinding{}, false, fmt.Errorf("bindings: %s: invalid deadzone %q: %w", a.Name, v, err)
			}
			a.Deadzone = f
		}
	}
	return a, true, nil
}

// valueChildren collects the Value attribute of children not named in skip.
func valueChildren(n *node, skip ...string) map[string]string {
	var values map[string]string
outer:
	for i := range n.Nodes {
		c := &n.Nodes[i]
		for _, s := range skip {
			if c.XMLName.Local == s {
				continue outer
			}
		}
		v, ok := c.lookupAttr(attrValue)
		if !ok {
			continue
		}
		if values == nil {
			values = make(map[string]string)
		}
		values[c.XMLName.Local] = v
	}
	return values
}
