package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stoprouter/internal/app"
	"stoprouter/internal/buildinfo"
	"stoprouter/internal/config"
	"stoprouter/internal/errs"
	"stoprouter/internal/logger"
	"stoprouter/internal/model"
	"stoprouter/internal/session"
)

type cli struct {
	configPath string
	sessionID  string
	asJSON     bool

	rt  *app.App
	svc *session.Service
}

func newRootCmd() *cobra.Command {
	return (&cli{}).command()
}

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:          "routectl",
		Short:        "Sequence and track a driver's delivery stops",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	root.PersistentFlags().StringVarP(&c.sessionID, "session", "s", envOr("ROUTECTL_SESSION", "cli"), "session id")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print the route view as JSON")

	var file string
	optimizeCmd := &cobra.Command{
		Use:   "optimize -f stops.json",
		Short: "Sequence stops from a JSON file (use - for stdin) and start tracking them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return c.run(cmd, "", func(ctx context.Context, st *session.State) error {
				return c.svc.Optimize(ctx, st, rows)
			})
		},
	}
	optimizeCmd.Flags().StringVarP(&file, "file", "f", "", "stops file: an array of rows or {\"stops\": [...]}")
	_ = optimizeCmd.MarkFlagRequired("file")

	var filter string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, filter, nil)
		},
	}
	showCmd.Flags().StringVar(&filter, "filter", "", "only list stops whose address, district or label contains this text")

	stopCmd := func(use, short string, fn func(ctx context.Context, st *session.State, uid string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " UID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.run(cmd, "", func(ctx context.Context, st *session.State) error {
					uid, err := resolveUID(st, args[0])
					if err != nil {
						return err
					}
					return fn(ctx, st, uid)
				})
			},
		}
	}

	labelCmd := &cobra.Command{
		Use:   "label UID TEXT",
		Short: "Override the displayed label of a stop (empty TEXT restores the original)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "", func(ctx context.Context, st *session.State) error {
				uid, err := resolveUID(st, args[0])
				if err != nil {
					return err
				}
				return c.svc.SetOverride(ctx, st, uid, strings.TrimSpace(args[1]))
			})
		},
	}

	compactCmd := &cobra.Command{
		Use:   "compact",
		Short: "Drop completed stops and renumber the rest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "", func(ctx context.Context, st *session.State) error {
				changed, err := c.svc.Compact(ctx, st)
				if err == nil && !changed {
					fmt.Fprintln(cmd.ErrOrStderr(), "nothing completed; route unchanged")
				}
				return err
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the route and its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "", func(ctx context.Context, st *session.State) error {
				c.svc.Reset(ctx, st)
				return nil
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(buildinfo.Info())
		},
	}

	root.AddCommand(
		optimizeCmd,
		showCmd,
		stopCmd("toggle", "Flip a stop between pending and completed", func(ctx context.Context, st *session.State, uid string) error {
			_, err := c.svc.Toggle(ctx, st, uid)
			return err
		}),
		stopCmd("complete", "Mark a stop completed", func(ctx context.Context, st *session.State, uid string) error {
			return c.svc.MarkComplete(ctx, st, uid)
		}),
		stopCmd("pending", "Mark a stop pending again", func(ctx context.Context, st *session.State, uid string) error {
			return c.svc.MarkPending(ctx, st, uid)
		}),
		labelCmd,
		compactCmd,
		resetCmd,
		versionCmd,
	)
	return root
}

// open builds the runtime on first use.
func (c *cli) open(cmd *cobra.Command) error {
	if c.rt != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	rt, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	c.rt = rt
	c.svc = session.NewService(rt.Resolver, rt.Repo, nil, log)
	return nil
}

// close releases the runtime opened by open.
func (c *cli) close() error {
	if c.rt == nil {
		return nil
	}
	err := c.rt.Close()
	c.rt, c.svc = nil, nil
	return err
}

// run restores the session, applies fn (if any) and prints the result. The
// runtime is closed on every path, failed commands included.
func (c *cli) run(cmd *cobra.Command, filter string, fn func(ctx context.Context, st *session.State) error) (err error) {
	if err = c.open(cmd); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, c.close()) }()
	ctx := cmd.Context()
	st := c.svc.Restore(ctx, c.sessionID)
	if fn != nil {
		if err := fn(ctx, st); err != nil {
			return err
		}
	}
	view := session.View(st, filter)
	if c.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return printView(cmd.OutOrStdout(), view)
}

// readRows accepts either a bare array of rows or {"stops": [...]}.
func readRows(stdin io.Reader, path string) ([]model.StopRow, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}
	var rows []model.StopRow
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Stops []model.StopRow `json:"stops"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse stops: %w", err)
	}
	return wrapped.Stops, nil
}

// resolveUID accepts a full uid or an unambiguous prefix of one.
func resolveUID(st *session.State, arg string) (string, error) {
	if arg == "" {
		return "", errs.NewValueIsRequiredError("uid")
	}
	if st.Route.Has(arg) {
		return arg, nil
	}
	match := ""
	for _, s := range st.Route.Stops {
		if strings.HasPrefix(s.UID, arg) {
			if match != "" {
				return "", errs.NewValueIsInvalidErrorWithCause("uid", errors.New("ambiguous prefix "+arg))
			}
			match = s.UID
		}
	}
	if match == "" {
		return "", errs.NewObjectNotFoundError("uid", arg)
	}
	return match, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
