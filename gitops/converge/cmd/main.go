// Command gitstate converges a directory tree towards the
// state declared in a YAML file: directories exist, are
// git repositories and carry the declared remotes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/gitstate/gitops/converge"
)

// options holds the flags shared by subcommands.
type options struct {
	configPath string
	root       string
	envFile    string
	rollback   bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt,
	)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "gitstate",
		Short:         "Converge directories, git repositories and remotes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(
				cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: level},
			)))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(
		&opts.envFile, "env_file", "",
		"Optional .env file with provider credentials",
	)
	flags.BoolVarP(
		&opts.verbose, "verbose", "v", false,
		"Enable debug logging",
	)

	root.AddCommand(
		newPlanCmd(opts),
		newApplyCmd(opts),
		newRemoteCmd(opts),
		newProvidersCmd(),
	)

	return root
}

func addTreeFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(
		&opts.configPath, "file", "f", "",
		"Desired-state YAML file (required)",
	)
	cmd.Flags().StringVar(
		&opts.root, "root", "",
		"Tree root directory (default: directory of --file)",
	)

	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func (o *options) config() converge.Config {
	return converge.Config{
		ConfigPath:      o.configPath,
		Root:            o.root,
		EnvFile:         o.envFile,
		RollbackOnError: o.rollback,
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the operations needed to converge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.config()
			cfg.DryRun = true

			plan, err := converge.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			steps := plan.Steps()
			if len(steps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do.")

				return nil
			}

			for _, s := range steps {
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"%s  %s: %s -> %s\n",
					s.Path, s.Description, s.Before, s.After,
				)
			}

			return nil
		},
	}

	addTreeFlags(cmd, opts)

	return cmd
}

func newApplyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the operations needed to converge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := converge.Run(cmd.Context(), opts.config())
			if plan != nil {
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"%d operation(s) applied\n",
					len(plan.Applied()),
				)
			}

			return err
		},
	}

	addTreeFlags(cmd, opts)
	cmd.Flags().BoolVar(
		&opts.rollback, "rollback", true,
		"Undo applied operations when one fails",
	)

	return cmd
}

func newRemoteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage hosted repositories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ensure <url>",
		Short: "Create the hosted repository behind url if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			getenv, err := converge.EnvLookup(opts.envFile)
			if err != nil {
				return err
			}

			repo, err := converge.EnsureRemote(
				cmd.Context(),
				converge.DefaultProviderSet(getenv),
				args[0],
			)
			if err != nil {
				return err
			}

			if repo == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists")

				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", repo.WebURL)

			return nil
		},
	})

	return cmd
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported hosting platforms and their variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printProviders(cmd.OutOrStdout())

			return nil
		},
	}
}

func printProviders(w io.Writer) {
	for _, f := range converge.Factories() {
		fmt.Fprintf(
			w, "%-10s %s\n",
			f.Name, strings.Join(f.EnvKeys, " "),
		)
	}
}
