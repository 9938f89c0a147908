package cmd

import (
	"sort"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/vx-dev/vx/pkg/config"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/store"
	"github.com/spf13/cobra"
)

var listInstalled bool

// toolRow is one line of `vx list` output.
type toolRow struct {
	Name      string `json:"name" pretty:"label=Tool"`
	Manager   string `json:"manager" pretty:"label=Manager"`
	Installed string `json:"installed" pretty:"label=Installed"`
}

type toolList struct {
	Tools []toolRow `json:"tools" pretty:"table"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known tools and what's installed",
	Long: `List every tool the registry knows, its version source, and which
versions are committed to the store. With --installed, only tools that
have at least one installed version are shown.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "Only show tools with an installed version")
}

func runList(cmd *cobra.Command, args []string) error {
	registry := config.GetGlobalRegistry()
	st := store.New(platform.DefaultHome())

	var rows []toolRow
	for name, pkg := range registry.Registry {
		versions, err := st.Versions(name)
		if err != nil {
			versions = nil
		}
		if listInstalled && len(versions) == 0 {
			continue
		}

		sort.Strings(versions)
		installed := "-"
		if len(versions) > 0 {
			installed = strings.Join(versions, ", ")
		}

		rows = append(rows, toolRow{Name: name, Manager: pkg.Manager, Installed: installed})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	result, err := clicky.Format(toolList{Tools: rows})
	if err != nil {
		return err
	}
	cmd.Println(result)
	return nil
}
