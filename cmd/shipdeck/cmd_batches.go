package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"shipdeck/internal/api"
	"shipdeck/internal/batch"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "Upload a shipment spreadsheet and create a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireSession(cmd); err != nil {
			return err
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		b, err := a.client.UploadBatch(cmd.Context(), args[0], content)
		if err != nil {
			return fmt.Errorf("%s", api.Message(err))
		}

		fmt.Printf("Uploaded %s as batch %d\n", b.FileName, b.ID)
		fmt.Printf("  %d total / %d valid / %d need attention\n",
			b.TotalRecords, b.ValidRecords, b.InvalidRecords)
		for _, w := range b.ParseWarnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if b.InvalidRecords > 0 {
			fmt.Printf("Fix the flagged records with: shipdeck ship %d\n", b.ID)
		}
		return nil
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List and manage batches",
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all batches with status and cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireSession(cmd); err != nil {
			return err
		}

		batches, err := a.client.ListBatches(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", api.Message(err))
		}
		if len(batches) == 0 {
			fmt.Println("No batches yet. Start with: shipdeck upload <file.csv>")
			return nil
		}

		fmt.Printf("%-6s %-28s %-8s %-8s %-18s %10s\n",
			"ID", "FILE", "RECORDS", "INVALID", "STATUS", "COST")
		for _, b := range batches {
			fmt.Printf("%-6d %-28s %-8d %-8d %-18s %10s\n",
				b.ID, b.FileName, b.TotalRecords, b.InvalidRecords,
				b.Status, batch.FormatUSD(b.TotalCost))
		}
		return nil
	},
}

var batchesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a batch and all its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireSession(cmd); err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid batch id %q", args[0])
		}
		if err := a.client.DeleteBatch(cmd.Context(), id); err != nil {
			return fmt.Errorf("%s", api.Message(err))
		}
		fmt.Printf("Deleted batch %d\n", id)
		return nil
	},
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the shipping service price table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireSession(cmd); err != nil {
			return err
		}

		rates, err := a.client.ShippingRates(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s", api.Message(err))
		}
		fmt.Printf("%-12s %-24s %10s %12s\n", "KEY", "SERVICE", "BASE", "PER OZ")
		for _, r := range rates.Services {
			fmt.Printf("%-12s %-24s %10s %12s\n",
				r.Key, r.Name, batch.FormatUSD(r.BasePrice), batch.FormatUSD(r.PerOzRate))
		}
		return nil
	},
}

func init() {
	batchesCmd.AddCommand(batchesListCmd, batchesDeleteCmd)
}
