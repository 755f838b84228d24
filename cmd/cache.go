package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/finagents/internal/adapters/render/response"
	"github.com/bnema/finagents/internal/domain"
	"github.com/spf13/cobra"
)

func newCacheCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and refresh cached company data",
	}

	cmd.AddCommand(
		newCacheStatusCmd(app),
		newCacheRefreshCmd(app),
	)

	return cmd
}

type cacheStatusJSON struct {
	Kind  domain.SnapshotKind `json:"kind"`
	AsOf  *time.Time          `json:"as_of,omitempty"`
	Stale bool                `json:"stale"`
}

func newCacheStatusCmd(app *app) *cobra.Command {
	var rawTicker string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show when each data kind was last fetched for a ticker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ticker, err := domain.NormalizeTicker(rawTicker)
			if err != nil {
				return err
			}

			rows := make([]response.SnapshotStatus, 0, len(app.sources))
			for _, source := range app.sources {
				asOf, err := source.fetched(cmd.Context(), ticker)
				if err != nil {
					return fmt.Errorf("load %s snapshot: %w", source.kind, err)
				}
				rows = append(rows, response.SnapshotStatus{Kind: source.kind, AsOf: asOf})
			}

			now := app.clock.Now()
			if asJSON {
				out := make([]cacheStatusJSON, 0, len(rows))
				for _, row := range rows {
					entry := cacheStatusJSON{Kind: row.Kind, Stale: true}
					if !row.AsOf.IsZero() {
						asOf := row.AsOf
						entry.AsOf = &asOf
						entry.Stale = (domain.Snapshot[struct{}]{AsOf: asOf}).IsStale(now, app.maxAge)
					}
					out = append(out, entry)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			rendered, err := app.snapshotRenderer(rows, response.SnapshotOptions{
				Ticker: ticker,
				Now:    now,
				MaxAge: app.maxAge,
			})
			if err != nil {
				return fmt.Errorf("render cache status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&rawTicker, "ticker", "", "Company ticker")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("ticker")

	return cmd
}

func newCacheRefreshCmd(app *app) *cobra.Command {
	var rawTicker string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh data for a ticker and store it in the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ticker, err := domain.NormalizeTicker(rawTicker)
			if err != nil {
				return err
			}

			company, err := app.lookup.Lookup(cmd.Context(), ticker)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", ticker, err)
			}

			for _, source := range app.sources {
				if _, err := source.refresh(cmd.Context(), company); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s for %s\n", source.kind, ticker); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&rawTicker, "ticker", "", "Company ticker")
	_ = cmd.MarkFlagRequired("ticker")

	return cmd
}
