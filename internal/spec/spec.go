package spec

import (
	"fmt"
	"sort"
)

// Config is a single plugin configuration object. Values stay untyped until
// the owning runner decodes them.
type Config map[string]any

// Plugin is one plugin key inside a phase body with its raw value.
type Plugin struct {
	Name  string
	Value any
}

// Configs returns the plugin value as an ordered sequence of configuration
// objects. See Normalize.
func (p Plugin) Configs(phase string) ([]Config, error) {
	configs, err := Normalize(p.Value)
	if err != nil {
		return nil, Configf(phase, p.Name, "%v", err)
	}
	return configs, nil
}

// Phase is one top-level key of a spec. Plugins is only populated when the
// body is a mapping; metadata phases may carry any shape in Value.
type Phase struct {
	Name    string
	Value   any
	Plugins []Plugin
	mapping bool
}

// IsMapping reports whether the phase body is a mapping of plugin names.
func (p *Phase) IsMapping() bool {
	return p != nil && p.mapping
}

// Plugin returns the named plugin entry.
func (p *Phase) Plugin(name string) (Plugin, bool) {
	if p == nil {
		return Plugin{}, false
	}
	for _, plugin := range p.Plugins {
		if plugin.Name == name {
			return plugin, true
		}
	}
	return Plugin{}, false
}

// Spec is an ordered mapping of phase names to phase bodies.
type Spec struct {
	phases []*Phase
	index  map[string]*Phase
	// Sources lists the files merged into this spec, in load order.
	Sources []string
}

// New returns an empty spec.
func New() *Spec {
	return &Spec{index: map[string]*Phase{}}
}

// Names returns phase names in declaration order.
func (s *Spec) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.phases))
	for _, phase := range s.phases {
		names = append(names, phase.Name)
	}
	return names
}

// Phases returns the phases in declaration order.
func (s *Spec) Phases() []*Phase {
	if s == nil {
		return nil
	}
	return append([]*Phase{}, s.phases...)
}

// Phase returns the named phase.
func (s *Spec) Phase(name string) (*Phase, bool) {
	if s == nil {
		return nil, false
	}
	phase, ok := s.index[name]
	return phase, ok
}

// Has reports whether the spec declares the phase.
func (s *Spec) Has(name string) bool {
	_, ok := s.Phase(name)
	return ok
}

// Len returns the number of top-level keys.
func (s *Spec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.phases)
}

// Set appends a phase, or replaces the body of an existing one in place.
func (s *Spec) Set(name string, value any) {
	phase := newPhase(name, value)
	if existing, ok := s.index[name]; ok {
		*existing = *phase
		return
	}
	s.phases = append(s.phases, phase)
	s.index[name] = phase
}

func newPhase(name string, value any) *Phase {
	phase := &Phase{Name: name, Value: value}
	var body orderedBody
	switch v := value.(type) {
	case orderedBody:
		body = v
	case map[string]any:
		for _, key := range sortedKeys(v) {
			body.plugins = append(body.plugins, Plugin{Name: key, Value: v[key]})
		}
	default:
		return phase
	}
	phase.mapping = true
	phase.Plugins = body.plugins
	phase.Value = body.toMap()
	return phase
}

// orderedBody carries plugin key order out of the YAML decoder.
type orderedBody struct {
	plugins []Plugin
}

func (b orderedBody) toMap() map[string]any {
	out := make(map[string]any, len(b.plugins))
	for _, plugin := range b.plugins {
		out[plugin.Name] = plugin.Value
	}
	return out
}

// FromMap builds a spec from a plain map. Go maps have no order, so phase and
// plugin keys are sorted; use Parse when declaration order matters.
func FromMap(raw map[string]any) *Spec {
	s := New()
	for _, key := range sortedKeys(raw) {
		s.Set(key, raw[key])
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Normalize turns a plugin value into an ordered sequence of configuration
// objects. A single object (or null) becomes a one-element sequence; a list of
// objects is kept in order.
func Normalize(value any) ([]Config, error) {
	switch v := value.(type) {
	case nil:
		return []Config{{}}, nil
	case Config:
		return []Config{v}, nil
	case map[string]any:
		return []Config{Config(v)}, nil
	case []Config:
		return append([]Config{}, v...), nil
	case []map[string]any:
		out := make([]Config, len(v))
		for i, item := range v {
			out[i] = Config(item)
		}
		return out, nil
	case []any:
		out := make([]Config, 0, len(v))
		for i, item := range v {
			switch cfg := item.(type) {
			case nil:
				out = append(out, Config{})
			case map[string]any:
				out = append(out, Config(cfg))
			case Config:
				out = append(out, cfg)
			default:
				return nil, fmt.Errorf("entry %d must be a mapping, got %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("configuration must be a mapping or a list of mappings, got %T", value)
	}
}
