package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

var listSearch string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards sorted by store name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		cards, err := svc.ListCards(cmd.Context(), listSearch)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STORE\tNUMBER\tHOLDER\tCODE")
		for _, c := range cards {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.StoreName, c.CardNumber, c.Holder(), c.Mode())
		}
		return tw.Flush()
	},
}

var (
	addHolder string
	addQR     bool
	addColor  string
)

var addCmd = &cobra.Command{
	Use:   "add NUMBER STORE",
	Short: "Add a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		opts := []models.CardOption{models.WithQRCode(addQR), models.WithColor(addColor)}
		if addHolder != "" {
			opts = append(opts, models.WithHolder(addHolder))
		}
		card, err := svc.AddCard(cmd.Context(), models.NewCard(args[0], args[1], opts...))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", card.CardNumber, card.StoreName)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete NUMBER",
	Short: "Delete a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.DeleteCard(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive store name filter")

	addCmd.Flags().StringVar(&addHolder, "holder", "", "card holder name")
	addCmd.Flags().BoolVar(&addQR, "qr", false, "show the card as a QR code")
	addCmd.Flags().StringVar(&addColor, "color", models.DefaultColorHex, "card colour as #RRGGBB")

	rootCmd.AddCommand(listCmd, addCmd, deleteCmd)
}
