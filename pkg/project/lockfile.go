package project

import (
	"fmt"
	"os"
	"sort"

	"github.com/vx-dev/vx/pkg/types"
	"gopkg.in/yaml.v3"
)

// WriteLockFile writes a lock file deterministically: map iteration order
// in Go is randomized, so dependency names are sorted before encoding via
// an ordered yaml.Node rather than relying on map encoding order.
func WriteLockFile(path string, lock *types.LockFile) error {
	names := make([]string, 0, len(lock.Dependencies))
	for name := range lock.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendScalar(root, "version", lock.Version)
	appendScalar(root, "generated", lock.Generated.UTC().Format("2006-01-02T15:04:05Z"))

	var platNode yaml.Node
	if err := platNode.Encode(lock.CurrentPlatform); err != nil {
		return fmt.Errorf("encoding current_platform: %w", err)
	}
	root.Content = append(root.Content, scalarNode("current_platform"), &platNode)

	depsNode := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		var entryNode yaml.Node
		if err := entryNode.Encode(lock.Dependencies[name]); err != nil {
			return fmt.Errorf("encoding lock entry for %s: %w", name, err)
		}
		depsNode.Content = append(depsNode.Content, scalarNode(name), &entryNode)
	}
	root.Content = append(root.Content, scalarNode("dependencies"), depsNode)

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLockFile loads a previously written vx-lock.yaml, returning
// (nil, nil) if it doesn't exist yet (a project with no lock file is
// valid, `vx sync` creates one).
func ReadLockFile(path string) (*types.LockFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lock types.LockFile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &lock, nil
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func appendScalar(root *yaml.Node, key, value string) {
	root.Content = append(root.Content, scalarNode(key), scalarNode(value))
}
