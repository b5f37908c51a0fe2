package framework

import "golang.org/x/exp/slices"

// Capabilities is a list of names describing what the client under test can do. The harness
// fills it with the names of the client's public methods.
type Capabilities []string

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	return slices.Contains(cs, name)
}

// HasAll returns true if every one of the specified strings appears in the list.
func (cs Capabilities) HasAll(names ...string) bool {
	for _, n := range names {
		if !cs.Has(n) {
			return false
		}
	}
	return true
}

// Missing returns the names from wanted that are not in the list, in the order given.
func (cs Capabilities) Missing(wanted Capabilities) Capabilities {
	var ret Capabilities
	for _, w := range wanted {
		if !cs.Has(w) {
			ret = append(ret, w)
		}
	}
	return ret
}
