package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"collegedata-server-go/config"
	"collegedata-server-go/db"
	"collegedata-server-go/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "collegedata",
	Short:         "Serve the college students and courses site",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := setup()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, lgr)
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every student to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := setup()
		if err != nil {
			return err
		}
		catalog, closeStore, err := openCatalog(cmd.Context(), cfg, lgr)
		if err != nil {
			return err
		}
		defer closeStore()

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := catalog.ExportStudents(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		lgr.Info().Str("file", exportOut).Msg("Students exported")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "students.xlsx", "workbook to write")
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	lgr := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Debug().Str("store", cfg.Store.Driver).Str("port", cfg.Server.Port).Msg("Configuration loaded")
	return cfg, lgr, nil
}

// openCatalog builds the configured store and loads the catalog from it. The
// returned func releases the store.
func openCatalog(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Catalog, func(), error) {
	fileStore := db.NewFileStore(cfg.Data.CoursesFile, cfg.Data.StudentsFile)
	var (
		store     db.Store = fileStore
		closeFunc          = func() {}
	)

	if strings.ToLower(cfg.Store.Driver) == "redis" {
		client, err := db.InitializeRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		lgr.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("Connected to Redis")

		redisStore := db.NewRedisStore(client, cfg.Redis.KeyPrefix, lgr)
		if _, err := redisStore.Seed(ctx, fileStore); err != nil {
			// Without seed documents the load below reports what is missing.
			lgr.Warn().Err(err).Msg("Could not seed Redis from disk")
		}
		store = redisStore
		closeFunc = func() {
			if err := client.Close(); err != nil {
				lgr.Error().Err(err).Msg("Error closing Redis client")
			}
		}
	}

	catalog, err := db.Load(ctx, store, lgr)
	if err != nil {
		closeFunc()
		return nil, nil, err
	}
	return catalog, closeFunc, nil
}
