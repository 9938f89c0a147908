package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectEnv is vx.yaml's `env` block. Inline keys are static values set
// for every script and hook the project runs; the nested `required` and
// `optional` maps declare variables the caller's environment is expected
// to supply, keyed by name with a human-readable description.
type ProjectEnv struct {
	Static   map[string]string
	Required map[string]string
	Optional map[string]string
}

// UnmarshalYAML decodes the env block's mixed shape: string values are
// static entries, the reserved `required`/`optional` keys hold declaration
// maps.
func (e *ProjectEnv) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("env must be a mapping, got %s", node.Tag)
	}

	e.Static = make(map[string]string)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		switch key {
		case "required":
			if err := value.Decode(&e.Required); err != nil {
				return fmt.Errorf("env.required: %w", err)
			}
		case "optional":
			if err := value.Decode(&e.Optional); err != nil {
				return fmt.Errorf("env.optional: %w", err)
			}
		default:
			var s string
			if err := value.Decode(&s); err != nil {
				return fmt.Errorf("env.%s must be a string: %w", key, err)
			}
			e.Static[key] = s
		}
	}
	return nil
}

// UnmarshalYAML accepts either the shorthand `build: "go build ./..."` or
// the full mapping form with cwd/env/depends.
func (s *Script) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Run = node.Value
		return nil
	}

	type rawScript Script
	var raw rawScript
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = Script(raw)
	return nil
}

// UnmarshalYAML accepts a single command, a list of commands (joined so
// they run in sequence and stop on the first failure), or the mapping form.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		h.Run = node.Value
		return nil
	case yaml.SequenceNode:
		var commands []string
		if err := node.Decode(&commands); err != nil {
			return err
		}
		h.Run = strings.Join(commands, " && ")
		return nil
	}

	type rawHook Hook
	var raw rawHook
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*h = Hook(raw)
	return nil
}
