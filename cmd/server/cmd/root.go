package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/config"
	"split-reconciliation-backend/internal/logger"
)

const defaultConfigFile = "config.yaml"

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Split-match reconciliation backend",
	Long: `Suggests, confirms and rejects split matches: allocations of one bank
transaction across several outstanding invoices.

Examples:
  server serve --port 8080
  server migrate --config config.yaml
  server seed --invoices 12`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command. Without a subcommand the server starts.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+defaultConfigFile+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func initConfig() {
	viper.SetEnvPrefix("SPLITMATCH")
	viper.AutomaticEnv()
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}

// loadConfig reads .env, then the config file named by --config (or
// SPLITMATCH_CONFIG), falling back to config.yaml and the environment.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrEnv(defaultConfigFile)
	}

	if viper.GetBool("verbose") {
		cfg.Logging.Level = "debug"
	}
	if port := viper.GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	return cfg, cfg.Validate()
}

type runtime struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func bootstrap() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", cfg.Database.Driver).Debug("database connected")

	return &runtime{cfg: cfg, log: log, db: db}, nil
}
