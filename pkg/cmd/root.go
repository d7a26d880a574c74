package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

var RootCmd = &cobra.Command{
	Use:   "tvlab",
	Short: "tvlab strategy backtester",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug log level")
	RootCmd.PersistentFlags().String("config", "tvlab.yaml", "config file")
}

func Execute() {
	// load .env silently, env vars may carry TVLAB_* config overrides
	_ = godotenv.Load()

	viper.SetEnvPrefix("tvlab")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	bindFlags(RootCmd.PersistentFlags())

	log.SetFormatter(&prefixed.TextFormatter{})

	logger := log.StandardLogger()
	if viper.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	}

	environment := os.Getenv("TVLAB_ENV")
	switch environment {
	case "production", "prod":
		logger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filepath.Join("log", "tvlab.log"),
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
		}))
		logger.SetFormatter(&log.JSONFormatter{})
	}

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("cannot execute command")
	}
}

func bindFlags(flagSet *pflag.FlagSet) {
	if err := viper.BindPFlags(flagSet); err != nil {
		log.WithError(err).Errorf("failed to bind flags. please check the flag settings.")
	}
}
