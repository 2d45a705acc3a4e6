package bindings

import "strings"

// NoDevice is the device name used by unassigned bindings.
const NoDevice = "{NoDevice}"

// DeviceKey is a single key, button or axis on a device.
type DeviceKey struct {
	Device string `json:"device" yaml:"device" toml:"device"`
	Key    string `json:"key" yaml:"key" toml:"key"`
}

// IsDefined reports whether the key is assigned to a device.
func (k DeviceKey) IsDefined() bool {
	return k.Device != "" && k.Device != NoDevice
}

func (k DeviceKey) String() string {
	if !k.IsDefined() {
		return NoDevice
	}
	return k.Device + ":" + k.Key
}

// DeviceKeyCombination is a key with optional modifier keys that must be
// held at the same time.
type DeviceKeyCombination struct {
	Device    string      `json:"device" yaml:"device" toml:"device"`
	Key       string      `json:"key" yaml:"key" toml:"key"`
	Modifiers []DeviceKey `json:"modifiers,omitempty" yaml:"modifiers,omitempty" toml:"modifiers,omitempty"`
}

// Undefined is the combination of an unassigned binding.
var Undefined = DeviceKeyCombination{Device: NoDevice}

// DeviceKey returns the main key of the combination.
func (c DeviceKeyCombination) DeviceKey() DeviceKey {
	return DeviceKey{Device: c.Device, Key: c.Key}
}

// IsDefined reports whether the combination is assigned to a device.
func (c DeviceKeyCombination) IsDefined() bool {
	return c.DeviceKey().IsDefined()
}

// String formats the combination as modifiers followed by the main key,
// e.g. "Keyboard:Key_LeftShift+Keyboard:Key_J".
func (c DeviceKeyCombination) String() string {
	if !c.IsDefined() {
		return NoDevice
	}
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, m.String())
	}
	parts = append(parts, c.DeviceKey().String())
	return strings.Join(parts, "+")
}
