package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cotandem/kai/pkg/version"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(version.Version())
			return
		}
		fmt.Printf("kai %s\n", version.Version())
		fmt.Printf("  commit: %s\n", version.Commit())
		fmt.Printf("  built:  %s\n", version.BuildDate())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
}
