// Command analyze runs a summoner query against the local store and prints
// each analytics state as a JSON line.
//
// Usage:
//
//	analyze player "Alice, Bob" --region euw --depth 20
//	analyze clash Alice --region na
//	analyze get <query-id>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"
	fxmodules "summoner-analytics/internal/fx"
	"summoner-analytics/internal/logger"
	"summoner-analytics/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type services struct {
	Queries   *service.QueryService
	Snapshots *service.SnapshotService
	Stream    *service.StreamService
}

func main() {
	root := &cobra.Command{
		Use:           "analyze",
		Short:         "Summoner analytics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(queryCmd(domain.QueryTypePlayer, "player <names>", "Analyze one or more comma-separated summoners"))
	root.AddCommand(queryCmd(domain.QueryTypeClash, "clash <name>", "Analyze the Clash team of a summoner"))
	root.AddCommand(getCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func queryCmd(queryType domain.QueryType, use, short string) *cobra.Command {
	var (
		region string
		depth  int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				id, err := svc.Queries.Submit(ctx, service.CreateQueryInput{
					SearchTerm: searchTerm(queryType, args),
					Type:       queryType,
					Region:     region,
					Depth:      depth,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, "query", id)

				enc := json.NewEncoder(os.Stdout)
				if follow {
					return svc.Stream.Stream(ctx, id, func(state *analytics.AnalyzedQuery) error {
						return enc.Encode(state)
					})
				}

				svc.Queries.Wait()
				state, err := svc.Snapshots.Get(ctx, id)
				if err != nil {
					return err
				}
				if err := enc.Encode(state); err != nil {
					return err
				}
				if state.Status == domain.QueryStatusFailed {
					return errors.New(state.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&region, "region", "r", "EUW1", "Platform region, e.g. EUW1, NA, KR")
	cmd.Flags().IntVarP(&depth, "depth", "d", 20, fmt.Sprintf("Matches per player (%d-%d)", constants.MinQueryDepth, constants.MaxQueryDepth))
	cmd.Flags().BoolVarP(&follow, "follow", "f", true, "Print every intermediate state")
	return cmd
}

// searchTerm joins the positional args. A Clash query names one summoner,
// so its words are joined back with spaces ("Hide on bush"); player names
// are a comma-separated list.
func searchTerm(queryType domain.QueryType, args []string) string {
	if queryType == domain.QueryTypeClash {
		return strings.Join(args, " ")
	}
	return strings.Join(args, ",")
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <query-id>",
		Short: "Print the stored state of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				state, err := svc.Snapshots.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(state)
			})
		},
	}
}

// withServices starts the core graph without transports, runs fn and stops
// it again. Logs go to stderr.
func withServices(parent context.Context, fn func(context.Context, services) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	var svc services
	app := fx.New(
		fxmodules.Core,
		fx.NopLogger,
		fx.Replace(logger.NewTo(os.Stderr)),
		fx.Populate(&svc.Queries, &svc.Snapshots, &svc.Stream),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx, svc)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
