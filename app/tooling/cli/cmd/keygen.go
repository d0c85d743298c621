package cmd

import (
	"fmt"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ardanlabs/medchain/foundation/keystore"
	"github.com/spf13/cobra"
)

var (
	keyFolder string
	keyNodeID int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new key pair for a node.",
	RunE:  keygenRun,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keyFolder, "folder", "f", "zblock/keys", "Path to the directory with private keys.")
	keygenCmd.Flags().IntVarP(&keyNodeID, "node", "n", 0, "Node the key belongs to.")
}

func keygenRun(cmd *cobra.Command, args []string) error {
	privateKey, err := keystore.Generate(keyFolder, keyNodeID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", keystore.FileName(keyNodeID), signature.Encode(signature.PublicKeyBytes(privateKey)))
	return nil
}
