package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"inkpost/app/config"
	"inkpost/service"

	"github.com/spf13/cobra"
)

// CliVersion is reported by "inkpost version".
const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain runs the command line and exits non-zero on failure.
func RealMain() {
	root := newRootCmd(os.Stdout, os.Stdin)
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exit(1)
	}
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:           "inkpost",
		Short:         "A small server-rendered blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetIn(in)

	root.AddCommand(
		newServeCmd(),
		newDBCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "inkpost version %s\n", CliVersion)
			},
		},
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blog HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			app, err := service.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

func newDBCmd() *cobra.Command {
	var databaseURL string

	maintenance := func(cmd *cobra.Command) (*service.Maintenance, error) {
		url := databaseURL
		if url == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			url = cfg.DatabaseURL
		}
		m := service.NewMaintenance(url)
		m.In = cmd.InOrStdin()
		m.Out = cmd.OutOrStdout()
		return m, nil
	}

	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the blog database",
	}
	db.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (defaults to DATABASE_URL)")

	var yes bool
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Remove the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := maintenance(cmd)
			if err != nil {
				return err
			}
			return m.Clean(yes)
		},
	}
	clean.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	var restoreYes bool
	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := maintenance(cmd)
			if err != nil {
				return err
			}
			return m.Restore(args[0], restoreYes)
		},
	}
	restore.Flags().BoolVarP(&restoreYes, "yes", "y", false, "replace an existing database without asking")

	db.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the database and its tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := maintenance(cmd)
				if err != nil {
					return err
				}
				return m.Init()
			},
		},
		&cobra.Command{
			Use:   "backup [file]",
			Short: "Write a backup of the database",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := maintenance(cmd)
				if err != nil {
					return err
				}
				file := ""
				if len(args) == 1 {
					file = args[0]
				}
				_, err = m.Backup(file)
				return err
			},
		},
		restore,
		clean,
	)
	return db
}
