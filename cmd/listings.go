package cmd

import (
	"context"
	"encoding/json"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/listings"
	"github.com/spigell/internify/internal/logger"
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Print the current internship listings",
	Run: func(cmd *cobra.Command, _ []string) {
		printListings(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listingsCmd)

	listingsCmd.Flags().BoolP("refresh", "r", false, "ignore the cache and generate new listings")
	listingsCmd.Flags().Bool("raw", false, "print listings as a JSON array")
}

func printListings(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, closeStore, err := newStore(ctx, config.Storage, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer closeStore()

	gw, err := newGateway(ctx, config, logger)
	if err != nil {
		logger.Fatal("building gateway", zap.Error(err))
	}

	cache := listings.New(store, gw, listings.Options{TTL: config.Listings.TTL, Logger: logger})

	var (
		items  []internship.Internship
		source = listings.SourceGateway
	)
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		items, err = cache.Refresh(ctx)
	} else {
		items, source, err = cache.Load(ctx)
	}
	if err != nil {
		logger.Fatal("loading listings", zap.Error(err))
	}

	logger.Info("listings loaded",
		zap.Int("count", len(items)),
		zap.Stringer("source", source),
		zap.Duration("cache_ttl", cache.TTL()),
	)

	out := cmd.OutOrStdout()
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			logger.Fatal("encoding listings", zap.Error(err))
		}
		return
	}

	renderListings(out, items)
}
