package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "github.com/romcheg/offline-cards/configs"
	"github.com/romcheg/offline-cards/internal/codegen"
	walletcfg "github.com/romcheg/offline-cards/internal/walletsvc/config"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
	"github.com/romcheg/offline-cards/internal/walletsvc/store"
)

var cfg walletcfg.Config

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Manage the loyalty card wallet from the command line",
	Long: `cardctl renders card codes, lists and edits cards, and moves the
collection in and out of the JSON interchange format.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	config.LoadEnv("cardctl")

	var err error
	cfg, err = walletcfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "card store driver: memory, postgres or mongo")
	flags.StringVar(&cfg.PostgresURL, "postgres-url", cfg.PostgresURL, "postgres connection string")
	flags.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "mongodb connection string")
	flags.StringVar(&cfg.QREncoder, "qr-encoder", cfg.QREncoder, "QR encoder: zxing or skip2")
	flags.BoolP("verbose", "v", false, "debug logging")
}

// openService opens the configured store behind a CardService. Events are
// not published from the CLI.
func openService(ctx context.Context) (*service.CardService, func(), error) {
	if cfg.StoreDriver == "" || cfg.StoreDriver == "memory" {
		log.Warn("memory store selected, changes are discarded on exit")
	}
	s, closeFn, err := store.Open(ctx, cfg.StoreDriver, cfg.PostgresURL, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.NewCardService(s, codegen.NewDefaultRenderer(cfg.QREncoder), nil, 1)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
