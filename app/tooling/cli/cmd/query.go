package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the node's verified chain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var blocks []map[string]any
		if err := get("/v1/chain", &blocks); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blocks)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute and check every block in the node's chain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Valid  bool   `json:"valid"`
			Blocks int    `json:"blocks"`
			Root   string `json:"root"`
		}
		if err := get("/v1/chain/verify", &result); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "blocks[%d]: valid[%t]: root[%s]\n", result.Blocks, result.Valid, result.Root)
		return nil
	},
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Print the number of blocks each node solved.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var credits []struct {
			NodeName string `json:"node_name"`
			Credits  int    `json:"credits"`
		}
		if err := get("/v1/credits", &credits); err != nil {
			return err
		}

		for _, c := range credits {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", c.NodeName, c.Credits)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(creditsCmd)
}
