package project

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/types"
)

// ResolveScriptOrder topologically sorts name and everything it transitively
// depends on via Script.Depends, so `vx run <name>` runs prerequisites
// before the script that declared them. Returns an error on an unknown
// script name or a dependency cycle.
func ResolveScriptOrder(scripts map[string]types.Script, name string) ([]string, error) {
	var order []string
	visiting := map[string]bool{}
	visited := map[string]bool{}

	var visit func(n string) error
	visit = func(n string) error {
		if visited[n] {
			return nil
		}
		if visiting[n] {
			return fmt.Errorf("cyclic script dependency involving %q", n)
		}
		script, ok := scripts[n]
		if !ok {
			return fmt.Errorf("unknown script %q", n)
		}

		visiting[n] = true
		for _, dep := range script.Depends {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[n] = false
		visited[n] = true
		order = append(order, n)
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}
	return order, nil
}
