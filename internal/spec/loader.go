package spec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load reads every path in order and merges the documents into one spec.
// Later files override scalar values of earlier ones; phases present in both
// merge their plugin keys, and mapping plugin values are deep merged.
func Load(paths ...string) (*Spec, error) {
	if len(paths) == 0 {
		return nil, &LoadError{Err: errors.New("no spec files given")}
	}
	merged := New()
	for _, path := range paths {
		data, err := readSpecFile(path)
		if err != nil {
			return nil, err
		}
		parsed, err := parse(data, path)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(parsed); err != nil {
			return nil, fmt.Errorf("spec: merge %s: %w", path, err)
		}
	}
	return merged, nil
}

// Parse decodes a single YAML document.
func Parse(data []byte) (*Spec, error) {
	return parse(data, "")
}

func readSpecFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errors.New("is a directory, expected a file")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return data, nil
}

func parse(data []byte, path string) (*Spec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("is empty")}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	root := &doc
	if root.Kind == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("is empty")}
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &LoadError{Path: path, Err: errors.New("is empty")}
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Message: fmt.Sprintf("%s: top level must be a mapping of phases", displayPath(path))}
	}
	s := New()
	if path != "" {
		s.Sources = []string{filepath.Clean(path)}
	}
	seen := make(map[string]struct{}, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		name := keyNode.Value
		if _, dup := seen[name]; dup {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("line %d: duplicate phase %q", keyNode.Line, name)}
		}
		seen[name] = struct{}{}
		value, err := decodeBody(valueNode)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("phase %s: %w", name, err)}
		}
		s.Set(name, value)
	}
	return s, nil
}

// decodeBody keeps plugin key order for mapping bodies and decodes everything
// else into plain Go values.
func decodeBody(node *yaml.Node) (any, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	}
	body := orderedBody{}
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Tag == "!!merge" {
			return nil, fmt.Errorf("line %d: merge keys are not supported in phase bodies", keyNode.Line)
		}
		name := keyNode.Value
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("line %d: duplicate plugin %q", keyNode.Line, name)
		}
		seen[name] = struct{}{}
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		body.plugins = append(body.plugins, Plugin{Name: name, Value: value})
	}
	return body, nil
}

// Merge folds other into s. Phase order is first-declared order.
func (s *Spec) Merge(other *Spec) error {
	if other == nil {
		return nil
	}
	for _, incoming := range other.phases {
		existing, ok := s.index[incoming.Name]
		if !ok || !existing.mapping || !incoming.mapping {
			s.Set(incoming.Name, cloneBody(incoming))
			continue
		}
		body := orderedBody{plugins: append([]Plugin{}, existing.Plugins...)}
		for _, plugin := range incoming.Plugins {
			idx := indexOfPlugin(body.plugins, plugin.Name)
			if idx < 0 {
				body.plugins = append(body.plugins, plugin)
				continue
			}
			value, err := mergeValue(body.plugins[idx].Value, plugin.Value)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", incoming.Name, plugin.Name, err)
			}
			body.plugins[idx].Value = value
		}
		s.Set(incoming.Name, body)
	}
	s.Sources = append(s.Sources, other.Sources...)
	return nil
}

func cloneBody(phase *Phase) any {
	if !phase.mapping {
		return phase.Value
	}
	return orderedBody{plugins: append([]Plugin{}, phase.Plugins...)}
}

func indexOfPlugin(plugins []Plugin, name string) int {
	for i, plugin := range plugins {
		if plugin.Name == name {
			return i
		}
	}
	return -1
}

func mergeValue(base, override any) (any, error) {
	baseMap, okBase := base.(map[string]any)
	overrideMap, okOverride := override.(map[string]any)
	if !okBase || !okOverride {
		return override, nil
	}
	dst := make(map[string]any, len(baseMap))
	for key, value := range baseMap {
		dst[key] = value
	}
	if err := mergo.Merge(&dst, overrideMap, mergo.WithOverride); err != nil {
		return nil, err
	}
	return dst, nil
}

func displayPath(path string) string {
	if path == "" {
		return "spec"
	}
	return path
}
