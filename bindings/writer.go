package bindings

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" ?>` + "\n"

// MarshalBinds returns the preset as a bindings document.
func (p *Preset) MarshalBinds() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the preset as a bindings document. Elements keep the order
// they had when parsed; elements added afterwards follow in name order.
func (p *Preset) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, xmlHeader); err != nil {
		return cw.n, err
	}

	enc := xml.NewEncoder(cw)
	enc.Indent("", "\t")

	root := xml.StartElement{
		Name: xml.Name{Local: elemRoot},
		Attr: []xml.Attr{
			attr(attrPresetName, p.Name),
			attr(attrMajorVersion, strconv.Itoa(p.MajorVersion)),
			attr(attrMinorVersion, strconv.Itoa(p.MinorVersion)),
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return cw.n, err
	}
	for _, name := range p.elementOrder() {
		if err := p.encodeElement(enc, name); err != nil {
			return cw.n, err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return cw.n, err
	}
	if err := enc.Flush(); err != nil {
		return cw.n, err
	}
	_, err := io.WriteString(cw, "\n")
	return cw.n, err
}

// elementOrder returns the names of all top-level elements to write.
func (p *Preset) elementOrder() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] && p.hasElement(name) {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range p.order {
		add(name)
	}

	var rest []string
	if !seen[elemKeyboardLayout] && p.KeyboardLayout != "" {
		rest = append(rest, elemKeyboardLayout)
	}
	for name := range p.Settings {
		rest = append(rest, name)
	}
	for name := range p.Bindings {
		rest = append(rest, name)
	}
	for name := range p.Axes {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return names
}

func (p *Preset) hasElement(name string) bool {
	if name == elemKeyboardLayout {
		return p.KeyboardLayout != ""
	}
	if _, ok := p.Bindings[name]; ok {
		return true
	}
	if _, ok := p.Axes[name]; ok {
		return true
	}
	_, ok := p.Settings[name]
	return ok
}

func (p *Preset) encodeElement(enc *xml.Encoder, name string) error {
	if name == elemKeyboardLayout {
		return enc.EncodeElement(p.KeyboardLayout, xml.StartElement{Name: xml.Name{Local: name}})
	}
	if b, ok := p.Bindings[name]; ok {
		return encodeBinding(enc, name, b)
	}
	if a, ok := p.Axes[name]; ok {
		return encodeAxis(enc, name, a)
	}
	return emptyElement(enc, name, attr(attrValue, p.Settings[name]))
}

func encodeBinding(enc *xml.Encoder, name string, b Binding) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeCombination(enc, elemPrimary, b.Primary); err != nil {
		return err
	}
	if err := encodeCombination(enc, elemSecondary, b.Secondary); err != nil {
		return err
	}
	if err := encodeSettings(enc, b.Settings); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func encodeCombination(enc *xml.Encoder, name string, c DeviceKeyCombination) error {
	if !c.IsDefined() {
		c = Undefined
	}
	start := xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{attr(attrDevice, c.Device), attr(attrKey, c.Key)},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, m := range c.Modifiers {
		if err := emptyElement(enc, elemModifier, attr(attrDevice, m.Device), attr(attrKey, m.Key)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeAxis(enc *xml.Encoder, name string, a AxisBinding) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	binding := a.Binding
	if !binding.IsDefined() {
		binding = DeviceKey{Device: NoDevice}
	}
	if err := emptyElement(enc, elemBinding, attr(attrDevice, binding.Device), attr(attrKey, binding.Key)); err != nil {
		return err
	}
	inverted := "0"
	if a.Inverted {
		inverted = "1"
	}
	if err := emptyElement(enc, elemInverted, attr(attrValue, inverted)); err != nil {
		return err
	}
	if err := emptyElement(enc, elemDeadzone, attr(attrValue, strconv.FormatFloat(a.Deadzone, 'f', 8, 64))); err != nil {
		return err
	}
	if err := encodeSettings(enc, a.Settings); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func encodeSettings(enc *xml.Encoder, settings map[string]string) error {
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := emptyElement(enc, name, attr(attrValue, settings[name])); err != nil {
			return err
		}
	}
	return nil
}

func emptyElement(enc *xml.Encoder, name string, attrs ...xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
