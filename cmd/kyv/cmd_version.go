package main

import "github.com/spf13/cobra"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			p := getPrinter()
			p.Emit(map[string]string{
				"version":    Version,
				"commit":     Commit,
				"build_date": BuildDate,
			}, func() {
				p.Textf("kyv %s (%s) built %s\n", Version, Commit, BuildDate)
			})
		},
	}
}
