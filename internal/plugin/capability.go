package plugin

import (
	"fmt"
	"strings"
)

// Capability is a role a plugin may implement.
type Capability uint8

// Known capabilities.
const (
	// CapFileOpen marks a plugin that can open files (FileOpener).
	CapFileOpen Capability = 1 << iota

	// CapPopupMenu marks a plugin that contributes popup menu items (PopupMenuProvider).
	CapPopupMenu

	// CapPreference marks a plugin with persistent preferences (PreferenceProvider).
	CapPreference
)

// allCapabilities lists capabilities in presentation order.
var allCapabilities = []Capability{CapFileOpen, CapPopupMenu, CapPreference}

// String returns the capability name as used in manifests.
func (c Capability) String() string {
	switch c {
	case CapFileOpen:
		return "file-open"
	case CapPopupMenu:
		return "popup-menu"
	case CapPreference:
		return "preference"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

// ParseCapability parses a manifest capability name.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file-open", "fileopen":
		return CapFileOpen, nil
	case "popup-menu", "popupmenu":
		return CapPopupMenu, nil
	case "preference", "preferences":
		return CapPreference, nil
	default:
		return 0, fmt.Errorf("unknown capability %q", s)
	}
}

// CapabilitySet is the set of roles a plugin implements.
type CapabilitySet uint8

// NewCapabilitySet builds a set from individual capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is a member of the set.
func (s CapabilitySet) Has(c Capability) bool {
	return c != 0 && uint8(s)&uint8(c) == uint8(c)
}

// With returns the set with c added.
func (s CapabilitySet) With(c Capability) CapabilitySet {
	return CapabilitySet(uint8(s) | uint8(c))
}

// Intersect returns the capabilities present in both sets.
func (s CapabilitySet) Intersect(o CapabilitySet) CapabilitySet {
	return CapabilitySet(uint8(s) & uint8(o))
}

// IsEmpty reports whether the set has no members.
func (s CapabilitySet) IsEmpty() bool {
	return s == 0
}

// List returns the members in presentation order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(allCapabilities))
	for _, c := range allCapabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// String returns a comma separated list of member names.
func (s CapabilitySet) String() string {
	if s.IsEmpty() {
		return "none"
	}
	names := make([]string, 0, len(allCapabilities))
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}
