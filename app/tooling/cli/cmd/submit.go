package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit every record in the file to the node.",
	Args:  cobra.ExactArgs(1),
	RunE:  submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func submitRun(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := parseRecords(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}

		resp, err := client.Post(url+"/v1/records", "application/json", bytes.NewReader(data))
		if err != nil {
			return err
		}

		var submitted struct {
			BlockID string `json:"block_id"`
		}
		if err := decode(resp, &submitted); err != nil {
			return fmt.Errorf("submitting %s %s: %w", record.FirstName, record.LastName, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: blk[%s]\n", record.FirstName, record.LastName, submitted.BlockID)
	}

	return nil
}
