package main

import (
	"context"
	"fmt"
	"time"

	"tablewise/api/routes"
	"tablewise/internal/bookings"
	"tablewise/internal/restaurants"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var (
		restaurantID string
		date         string
		days         int
	)

	c := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild ledger entries that drifted from the bookings table",
		Long: "Without --restaurant every slot with active bookings in the next --days days is checked.\n" +
			"With --restaurant and --date a single business date is rebuilt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			services, err := routes.NewServices(cfg, db)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			defer services.Shutdown(ctx)

			var report *bookings.ReconcileReport
			if restaurantID != "" {
				id, err := uuid.Parse(restaurantID)
				if err != nil {
					return fmt.Errorf("invalid --restaurant: %w", err)
				}
				if _, err := restaurants.ParseDate(date, time.UTC); err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
				}
				report, err = services.Bookings.Reconcile(ctx, id, date)
				if err != nil {
					return err
				}
			} else {
				report, err = services.Bookings.ReconcileUpcoming(ctx, days)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, d := range report.Drifts {
				fmt.Fprintf(out, "repaired %s ledger=%d actual=%d\n", d.Slot, d.Ledger, d.Actual)
			}
			fmt.Fprintf(out, "checked=%d repaired=%d\n", report.Checked, report.Repaired)
			return nil
		},
	}

	c.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id")
	c.Flags().StringVar(&date, "date", "", "business date YYYY-MM-DD (with --restaurant)")
	c.Flags().IntVar(&days, "days", 7, "days ahead to check")
	c.MarkFlagsRequiredTogether("restaurant", "date")
	return c
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark reservations whose slot has started as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			services, err := routes.NewServices(cfg, db)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			defer services.Shutdown(ctx)

			completed, err := services.Bookings.CompleteDue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed=%d\n", completed)
			return nil
		},
	}
}
