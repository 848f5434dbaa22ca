package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/kaiwahq/kaiwa/internal/profile"
	"github.com/kaiwahq/kaiwa/server"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "kaiwa",
	Short: "A real-time AI chat session server",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:           viper.GetString("mode"),
			Addr:           viper.GetString("addr"),
			Port:           viper.GetInt("port"),
			Data:           viper.GetString("data"),
			Driver:         viper.GetString("driver"),
			DSN:            viper.GetString("dsn"),
			Version:        version,
			RedisAddr:      viper.GetString("redis-addr"),
			RedisPassword:  viper.GetString("redis-password"),
			RedisDB:        viper.GetInt("redis-db"),
			AIProvider:     viper.GetString("ai-provider"),
			AIAPIKey:       viper.GetString("ai-api-key"),
			AIBaseURL:      viper.GetString("ai-base-url"),
			AIModel:        viper.GetString("ai-model"),
			AIMaxTokens:    viper.GetInt("ai-max-tokens"),
			AITemperature:  float32(viper.GetFloat64("ai-temperature")),
			AISystemPrompt: viper.GetString("ai-system-prompt"),
		}
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create database driver", "error", err)
			return err
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			return err
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			return err
		}

		var group errgroup.Group
		group.Go(func() error {
			return s.Start(ctx)
		})
		group.Go(func() error {
			<-ctx.Done()
			s.Shutdown(context.Background())
			return nil
		})
		if err := group.Wait(); err != nil {
			slog.Error("server exited with error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", ".")

	viper.SetEnvPrefix("kaiwa")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address for the server")
	rootCmd.PersistentFlags().Int("port", 8081, "binding port for the server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
