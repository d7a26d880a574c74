package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tvlab/tvlab/pkg/version"
)

func init() {
	RootCmd.AddCommand(VersionCmd)
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "show version",

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}
