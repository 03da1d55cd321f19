package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbservice/internal/app"
	"dbservice/internal/export"
	"dbservice/internal/lookup"
	"dbservice/internal/platform/config"
	"dbservice/internal/platform/logger"
	"dbservice/internal/version"
	dErrors "dbservice/pkg/domain-errors"
)

type cli struct {
	v   *viper.Viper
	app *app.App
	now func() time.Time
}

// newRootCmd builds the command tree. A nil viper gets a fresh one bound to
// the DBSERVICE_* environment.
func newRootCmd(v *viper.Viper) *cobra.Command {
	if v == nil {
		v = config.NewViper()
	}
	c := &cli{v: v, now: time.Now}

	root := &cobra.Command{
		Use:          "lookupctl",
		Short:        "SIM/CNIC registry and caller-ID lookups",
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a configuration file (YAML, JSON or TOML)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("registry-url", config.DefaultRegistryURL, "Registry lookup endpoint")
	flags.String("callerid-primary-url", config.DefaultCallerIDPrimaryURL, "Primary caller-ID endpoint")
	flags.String("callerid-backup-url", "", "Backup caller-ID endpoint")
	for key, flag := range map[string]string{
		"config":               "config",
		"log_level":            "log-level",
		"registry.url":         "registry-url",
		"callerid.primary_url": "callerid-primary-url",
		"callerid.backup_url":  "callerid-backup-url",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		c.lookupCmd(),
		c.callerIDCmd(),
		c.exportCmd(),
		c.statusCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) services(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.FromViper(c.v)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	a, err := app.New(cmd.Context(), cfg, log, nil)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Look up a mobile number or CNIC in the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup.NewQuery(args[0])
			if err != nil {
				return userError(err)
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetBool("raw")
			if raw {
				body, err := a.Lookup.Raw(cmd.Context(), q)
				if err != nil {
					return userError(err)
				}
				return writeJSON(cmd.OutOrStdout(), body)
			}
			res, err := a.Lookup.Lookup(cmd.Context(), q)
			if err != nil {
				return userError(err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Bool("raw", false, "Print the registry response verbatim")
	return cmd
}

func (c *cli) callerIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callerid <number>",
		Short: "Resolve the caller name and network for a mobile number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			res, err := a.CallerID.Lookup(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <query>",
		Short: "Export registry records as CSV or clipboard text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if !export.ValidFormat(format) {
				return fmt.Errorf("format must be %s or %s", export.FormatCSV, export.FormatText)
			}
			q, err := lookup.NewQuery(args[0])
			if err != nil {
				return userError(err)
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			res, err := a.Lookup.Lookup(cmd.Context(), q)
			if err != nil {
				return userError(err)
			}

			var body []byte
			if format == export.FormatText {
				body = []byte(export.Text(res.Results, c.now()) + "\n")
			} else if body, err = export.CSV(res.Results); err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d record(s) to %s\n", len(res.Results), output)
			return nil
		},
	}
	cmd.Flags().String("format", export.FormatCSV, "Output format (csv, text)")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe both upstream APIs with known test numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.Status.Check(cmd.Context()))
		},
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "lookupctl %s (commit %s, %s, %s)\n",
				info.Version, info.Commit, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError drops the wrapped cause from domain errors so the terminal shows
// the same code and message an API client would get.
func userError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return fmt.Errorf("%s: %s", de.Code, de.Message)
	}
	return err
}
