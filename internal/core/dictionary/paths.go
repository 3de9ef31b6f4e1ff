// Package dictionary maps paths and dates to dense integer ids
package dictionary

// Paths assigns ids to path bytes in first-seen order
//
// A Paths built with NewOverlay reads through to a base that must no longer change; ids
// for paths missing from the base continue after base.Len() and live only in the overlay.
type Paths struct {
	base    *Paths
	baseLen int
	ids     map[string]int
	list    []string
}

// NewPaths returns an empty dictionary sized for about hint paths
func NewPaths(hint int) *Paths {
	return &Paths{
		ids:  make(map[string]int, max(hint, 0)),
		list: make([]string, 0, max(hint, 0)),
	}
}

// NewOverlay returns a private dictionary layered on a read-only base
func NewOverlay(base *Paths) *Paths {
	p := NewPaths(0)
	if base != nil {
		p.base = base
		p.baseLen = base.Len()
	}
	return p
}

// Encode returns the id for path, assigning the next id when unseen
// fresh reports whether this call assigned it
func (p *Paths) Encode(path []byte) (id int, fresh bool) {
	if id, ok := p.Lookup(path); ok {
		return id, false
	}
	s := string(path)
	id = p.baseLen + len(p.list)
	p.ids[s] = id
	p.list = append(p.list, s)
	return id, true
}

// Lookup returns the id for path without assigning one
func (p *Paths) Lookup(path []byte) (int, bool) {
	if p.base != nil {
		if id, ok := p.base.Lookup(path); ok {
			return id, true
		}
	}
	id, ok := p.ids[string(path)]
	return id, ok
}

// Path returns the path for id; it panics on an id this dictionary never issued
func (p *Paths) Path(id int) string {
	if id < p.baseLen {
		return p.base.Path(id)
	}
	return p.list[id-p.baseLen]
}

// Len is the number of ids issued, base included
func (p *Paths) Len() int { return p.baseLen + len(p.list) }

// Overflow lists the paths this dictionary added on top of its base, in id order
func (p *Paths) Overflow() []string { return p.list }

// Seed adds paths in order, skipping ones already known, and reports how many were new
func (p *Paths) Seed(paths ...string) int {
	added := 0
	for _, s := range paths {
		if _, fresh := p.Encode([]byte(s)); fresh {
			added++
		}
	}
	return added
}
