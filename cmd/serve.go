package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/gateway"
	"github.com/spigell/internify/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation gateway over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8888)")
	viper.BindPFlag("gateway.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the internify gateway", zap.String("version", version))

	provider, err := newProviderGateway(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai gateway", zap.Error(err))
	}

	server := gateway.NewServer(provider, gateway.ServerOptions{
		RequestsPerSecond: config.Gateway.RateLimit,
		Burst:             config.Gateway.Burst,
		MaxBodyBytes:      config.Gateway.MaxBodyBytes,
		Timeout:           config.Gateway.Timeout,
		Logger:            logger,
	})

	if err := server.ListenAndServe(ctx, config.Gateway.Listen); err != nil {
		logger.Fatal("serving gateway", zap.Error(err))
	}

	logger.Info("gateway stopped")
}
