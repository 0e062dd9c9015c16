package plugin

import "fmt"

// Info contains unit metadata
type Info struct {
	ID       string // Unique identifier (e.g., "com.example.transpose")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Unit category (e.g., "MIDI Processor")
}

// String returns "Vendor Name Version".
func (i Info) String() string {
	s := i.Name
	if i.Vendor != "" {
		s = i.Vendor + " " + s
	}
	if i.Version != "" {
		s = fmt.Sprintf("%s %s", s, i.Version)
	}
	return s
}

// Validate checks that the unit can be identified.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("plugin: info for %q has no ID", i.Name)
	}
	if i.Name == "" {
		return fmt.Errorf("plugin: info %q has no name", i.ID)
	}
	return nil
}
