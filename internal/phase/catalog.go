// Package phase holds the closed catalog of pipeline phases a spec may use.
package phase

// Class is the result of classifying a spec key against the catalog.
type Class int

const (
	ClassUnknown Class = iota
	// ClassCore marks spec metadata keys that never go through plugin resolution.
	ClassCore
	ClassValid
)

func (c Class) String() string {
	switch c {
	case ClassCore:
		return "core"
	case ClassValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Stock phase names.
const (
	Setup    = "setup"
	Build    = "build"
	Test     = "test"
	Deploy   = "deploy"
	Teardown = "teardown"
)

// Catalog exposes two disjoint sets of names. Valid keeps execution order.
type Catalog struct {
	valid []string
	core  []string
}

// New builds a catalog. A name listed in both sets is treated as core.
func New(valid, core []string) Catalog {
	coreSet := make(map[string]struct{}, len(core))
	for _, name := range core {
		coreSet[name] = struct{}{}
	}
	filtered := make([]string, 0, len(valid))
	for _, name := range valid {
		if _, isCore := coreSet[name]; isCore {
			continue
		}
		filtered = append(filtered, name)
	}
	return Catalog{valid: filtered, core: append([]string{}, core...)}
}

// Default returns the stock catalog.
func Default() Catalog {
	return New(
		[]string{Setup, Build, Test, Deploy, Teardown},
		[]string{"meta", "name", "description", "long-description"},
	)
}

// Classify reports whether name is a core key, a valid phase, or neither.
func (c Catalog) Classify(name string) Class {
	for _, core := range c.core {
		if core == name {
			return ClassCore
		}
	}
	for _, valid := range c.valid {
		if valid == name {
			return ClassValid
		}
	}
	return ClassUnknown
}

// Order returns the valid phases in execution order.
func (c Catalog) Order() []string {
	return append([]string{}, c.valid...)
}

// Core returns the core (metadata) keys.
func (c Catalog) Core() []string {
	return append([]string{}, c.core...)
}
