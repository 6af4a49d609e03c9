package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hexe",
		Short:         "Compile and run Hexe programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(viper.GetString("config")); err != nil {
				return err
			}
			processGlobalFlags()
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.hexe.yaml)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.Bool("trace", false, "Log every executed instruction")
	flags.Int64("limit", 0, "Maximum number of instructions to execute (0 for no limit)")
	for _, name := range []string{"config", "no-color", "log-level", "trace", "limit"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	cmd.AddCommand(
		newBuildCmd(),
		newRunCmd(),
		newExecCmd(),
		newDisCmd(),
		newInspectCmd(),
		newVersionCmd(),
	)
	return cmd
}

// initConfig reads the config file and HEXE_ environment variables. A
// missing default config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("hexe")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".hexe")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// processGlobalFlags adjusts the environment according to the global flags.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fatal(err)
	}
}
