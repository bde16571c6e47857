package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docutag/interlinker"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "interlink",
	Short: "Inject contextual internal links into HTML documents",
	Long: `Interlink scans HTML documents for natural anchor phrases and links them
to related pages of the same site, spreading links across document zones.

Settings are read from flags, INTERLINK_* environment variables and an
optional config file (default $HOME/.interlink.yaml).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "settings", "", "settings file (default is $HOME/.interlink.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-element decisions")
	rootCmd.PersistentFlags().String("pages", "", "YAML file listing target pages")
	rootCmd.PersistentFlags().String("config", "", "YAML engine configuration file")
	rootCmd.PersistentFlags().String("heuristics", "", "YAML scoring heuristics file")

	for _, name := range []string{"pages", "config", "heuristics"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// initConfig reads in the settings file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".interlink")
	}

	viper.SetEnvPrefix("INTERLINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using settings file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a text logger on stderr
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newEngine builds an engine from the config and heuristics settings
func newEngine(logger *slog.Logger, opts ...interlinker.Option) (*interlinker.Engine, error) {
	config := interlinker.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		var err error
		config, err = interlinker.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	opts = append([]interlinker.Option{interlinker.WithLogger(logger)}, opts...)
	if path := viper.GetString("heuristics"); path != "" {
		h, err := interlinker.LoadHeuristics(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, interlinker.WithHeuristics(h))
	}

	return interlinker.New(config, opts...)
}
