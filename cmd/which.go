package cmd

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/dispatch"
	"github.com/spf13/cobra"
)

var whichCmd = &cobra.Command{
	Use:   "which <tool>[@version]",
	Short: "Print the resolved path of a managed tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, version := splitToolSpec(args[0])

		d, err := newDispatcher()
		if err != nil {
			return err
		}

		path, err := d.Resolve(dispatch.Request{
			Tool:          tool,
			VersionQuery:  version,
			UseSystemPath: useSystemPath,
		})
		if err != nil {
			return err
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whichCmd)
}
