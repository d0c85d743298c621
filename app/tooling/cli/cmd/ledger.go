package cmd

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/medchain/foundation/blockchain/codec"
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/merkle"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/storage/disk"
	"github.com/spf13/cobra"
)

var (
	ledgerDir   string
	ledgerCodec string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Check the ledger the archive node exported to disk.",
	RunE:  ledgerRun,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().StringVarP(&ledgerDir, "dir", "d", "zblock/ledger", "Directory holding the exported ledger.")
	ledgerCmd.Flags().StringVarP(&ledgerCodec, "codec", "c", codec.NameJSON, "Codec the ledger was written with.")
}

func ledgerRun(cmd *cobra.Command, args []string) error {
	cdc, err := codec.New(ledgerCodec)
	if err != nil {
		return err
	}

	d, err := disk.New(ledgerDir, cdc)
	if err != nil {
		return err
	}

	blocks, err := d.Read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.Path(), err)
	}

	db := database.New()
	for _, block := range blocks {
		db.AppendVerified(block)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: blocks[%d]: valid[%t]\n", d.Path(), len(blocks), db.RecomputeAndCheck())

	if len(blocks) > 0 {
		leaves := make([][]byte, len(blocks))
		for i, block := range blocks {
			leaves[i] = []byte(block.Hash)
		}

		tree, err := merkle.NewTree(leaves)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "root[%s]\n", tree.RootHex())
	}
	credits := db.Credits(0)
	nodeIDs := make([]int, 0, len(credits))
	for nodeID := range credits {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Ints(nodeIDs)

	for _, nodeID := range nodeIDs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", peer.New(nodeID), credits[nodeID])
	}

	return nil
}
