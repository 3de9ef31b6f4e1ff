// Package module holds the contract shared by the catalog and aggregate modules and the
// lookups that pull typed ports out of them
package module

// Module is one wired unit; Ports is usually a struct of port interfaces
type Module interface {
	Ports() any
	Name() string
}

// Enabler is implemented by modules that configuration can switch off
type Enabler interface{ Enabled() bool }

// Enabled reports whether m is on; modules without an Enabled method always are
func Enabled(m Module) bool {
	if e, ok := m.(Enabler); ok {
		return e.Enabled()
	}
	return true
}
