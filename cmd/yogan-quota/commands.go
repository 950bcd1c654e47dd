package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/application"
	"github.com/KOMKZ/go-yogan-quota/flagx"
	"github.com/KOMKZ/go-yogan-quota/health"
	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/throttle"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the quota tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *application.BaseApplication) error {
				db, err := do.Invoke[*gorm.DB](app.GetInjector())
				if err != nil {
					return err
				}
				if err := model.AutoMigrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
				return nil
			})
		},
	}
}

func newEnforceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enforce",
		Short: "Run one history enforcement pass over every task and workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *application.BaseApplication) error {
				summary, err := app.RunEnforcement(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
				if summary.Failed > 0 {
					return fmt.Errorf("%d owners failed", summary.Failed)
				}
				return nil
			})
		},
	}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run history enforcement on the configured cron schedule until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := application.NewCron(opts.diOptions())
			if err != nil {
				return err
			}
			app.WithVersion(version)
			return app.Run()
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the database and counter store connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *application.BaseApplication) error {
				agg, err := do.Invoke[*health.Aggregator](app.GetInjector())
				if err != nil {
					return err
				}
				resp := agg.Check(cmd.Context())
				if err := printJSON(cmd, resp); err != nil {
					return err
				}
				if !resp.IsHealthy() {
					return fmt.Errorf("status %s", resp.Status)
				}
				return nil
			})
		},
	}
}

type groupOptions struct {
	GroupID uint64 `flag:"group,g" usage:"group id" required:"true"`
	At      string `flag:"at" usage:"evaluation time (RFC3339), default now"`
}

func (o groupOptions) evalTime() (time.Time, error) {
	if o.At == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, o.At)
}

func newLimitsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Print the effective limits of a group as JSON (null means unlimited)",
	}
	var flags groupOptions
	cobra.CheckErr(flagx.BindFlags(cmd, &flags))

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flagx.ParseFlags(cmd, &flags); err != nil {
			return err
		}
		at, err := flags.evalTime()
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		return opts.withApp(func(app *application.BaseApplication) error {
			resolver, err := do.Invoke[*quota.Resolver](app.GetInjector())
			if err != nil {
				return err
			}
			return printJSON(cmd, resolver.Resolve(cmd.Context(), flags.GroupID, at))
		})
	}
	return cmd
}

type usageOutput struct {
	GroupID    uint64     `json:"group_id"`
	Used       int64      `json:"used"`
	Limit      *int64     `json:"limit"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ResetsAt   time.Time  `json:"resets_at"`
}

func newUsageCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Print the API credit usage of a group in the current month",
	}
	var flags groupOptions
	cobra.CheckErr(flagx.BindFlags(cmd, &flags))

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flagx.ParseFlags(cmd, &flags); err != nil {
			return err
		}
		at, err := flags.evalTime()
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		return opts.withApp(func(app *application.BaseApplication) error {
			th, err := do.Invoke[*throttle.Throttle](app.GetInjector())
			if err != nil {
				return err
			}
			resolver, err := do.Invoke[*quota.Resolver](app.GetInjector())
			if err != nil {
				return err
			}

			usage, err := th.Usage(cmd.Context(), flags.GroupID)
			if err != nil {
				return err
			}
			used := usage.Used
			if usage.LastUsedAt == nil || !throttle.SamePeriod(*usage.LastUsedAt, at) {
				used = 0
			}
			return printJSON(cmd, usageOutput{
				GroupID:    flags.GroupID,
				Used:       used,
				Limit:      resolver.Resolve(cmd.Context(), flags.GroupID, at).MaxAPICreditsPerMonth,
				LastUsedAt: usage.LastUsedAt,
				ResetsAt:   throttle.NextPeriodStart(at),
			})
		})
	}
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
