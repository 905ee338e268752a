package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCardsCommand(cc *cliConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Inspect and remove cards",
	}
	cmd.AddCommand(newCardsListCommand(cc), newCardsDeleteCommand(cc))
	return cmd
}

func newCardsListCommand(cc *cliConfig) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := cc.repo()
			if err != nil {
				return err
			}
			cards, err := repo.ListCards(cmd.Context())
			if err != nil {
				return err
			}
			sortByRecency(cards)
			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cards)
			case "text":
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tKIND\tNAMES\tRESPONSIBLE\tUPDATED")
				for _, c := range cards {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, kind(c), strings.Join(c.ChildrenNames, ", "),
						strings.Join(c.ResponsibleNames, ", "), humanize.Time(c.UpdatedAt))
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (json|text)")
	return cmd
}

func newCardsDeleteCommand(cc *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := cc.repo()
			if err != nil {
				return err
			}
			if err := repo.DeleteCard(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func sortByRecency(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].UpdatedAt.After(cards[j].UpdatedAt) })
}

func kind(c models.Card) string {
	if c.IsGestante {
		return "gestante"
	}
	return "child"
}
