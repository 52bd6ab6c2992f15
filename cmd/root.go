// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "CORELISP"
	keyLogLevel   = "log-level"
	keyFormat     = "format"
	formatText    = "text"
	formatJSON    = "json"
	defaultFormat = formatText
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corelisp",
	Short: "corelisp — Lisp runtime core inspection tool",
	Long: `corelisp inspects the value model and invocation protocol of the
corelisp runtime core.

Getting started:
  corelisp kinds                      List value kinds and capabilities
  corelisp kinds -c seqable           List the seqable kinds
  corelisp dispatch -F 2 -v 0 3 12    Explain how 0, 3 and 12 arguments
                                      reach a variadic function with F=2
  corelisp profile --callgrind out    Profile a sample workload
  corelisp version                    Print the runtime version

Settings may be given as flags, as CORELISP_* environment variables
(CORELISP_LOG_LEVEL, CORELISP_FORMAT) or in $HOME/.corelisp.yaml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.corelisp.yaml)")
	rootCmd.PersistentFlags().String(keyLogLevel, logrus.WarnLevel.String(),
		`Runtime log level: "debug", "info", "warn" or "error".`)
	rootCmd.PersistentFlags().String(keyFormat, defaultFormat,
		`Output format: "text" or "json".`)
	_ = viper.BindPFlag(keyLogLevel, rootCmd.PersistentFlags().Lookup(keyLogLevel))
	_ = viper.BindPFlag(keyFormat, rootCmd.PersistentFlags().Lookup(keyFormat))

	rootCmd.AddCommand(
		KindsCommand(),
		DispatchCommand(),
		ProfileCommand(),
		versionCmd,
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".corelisp" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".corelisp")
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns a logger writing to stderr at the configured level.
func newLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(viper.GetString(keyLogLevel))
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if outputFormat() == formatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func outputFormat() string {
	return viper.GetString(keyFormat)
}

func checkFormat() error {
	switch f := outputFormat(); f {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format: %q", f)
	}
}
