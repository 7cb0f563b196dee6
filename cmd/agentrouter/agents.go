package main

import (
	"fmt"
	"strings"

	"github.com/habiliai/agentrouter/network"
	"github.com/mokiat/gog"
	"github.com/spf13/cobra"
)

func newAgentsCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Resolve the remote agents and print the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			router, _, _, err := newRouter(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer router.Close()

			if asJSON {
				summary, err := router.Summary()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				return nil
			}

			agents := router.ListAgents()
			if len(agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no remote agents available")
				return nil
			}
			lines := gog.Map(agents, func(a network.AgentInfo) string {
				return fmt.Sprintf("%s\t%s", a.Name, a.Description)
			})
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per agent")

	return cmd
}
