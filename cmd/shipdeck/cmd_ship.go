package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shipdeck/cmd/shipdeck/ui"
)

var shipCmd = &cobra.Command{
	Use:   "ship [batch-id]",
	Short: "Interactive wizard: upload, review, pick services, purchase",
	Long: `Launches the four-step wizard. With no argument it starts at the
upload step; pass a batch id to resume an existing batch at review.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		var batchID int64
		if len(args) == 1 {
			batchID, err = strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid batch id %q", args[0])
			}
		}
		return ui.Run(a.client, a.session, a.store, a.cfg, logger, batchID)
	},
}
