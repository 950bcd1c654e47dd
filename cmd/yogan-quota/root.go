package main

import (
	"time"

	"github.com/KOMKZ/go-yogan-quota/application"
	"github.com/KOMKZ/go-yogan-quota/di"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	configFile string
	envPrefix  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "yogan-quota",
		Short:        "Execution history retention and usage limit enforcement",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config-path", "./configs", "configuration directory (config.yaml, <APP_ENV>.yaml)")
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "extra configuration file layered last")
	root.PersistentFlags().StringVar(&opts.envPrefix, "env-prefix", "QUOTA", "environment variable prefix")

	root.AddCommand(
		newMigrateCmd(opts),
		newEnforceCmd(opts),
		newScheduleCmd(opts),
		newLimitsCmd(opts),
		newUsageCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func (o *rootOptions) diOptions() di.ConfigOptions {
	return di.ConfigOptions{
		ConfigPath: o.configPath,
		ConfigFile: o.configFile,
		EnvPrefix:  o.envPrefix,
	}
}

// withApp runs fn against a fresh application and shuts it down afterwards
func (o *rootOptions) withApp(fn func(app *application.BaseApplication) error) error {
	app, err := application.NewBase(o.diOptions())
	if err != nil {
		return err
	}
	app.WithVersion(version)

	runErr := fn(app)
	if err := app.Shutdown(5 * time.Second); err != nil && runErr == nil {
		return err
	}
	return runErr
}
