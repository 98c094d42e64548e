package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/logging"
	"github.com/drummonds/slideframe/internal/metadata"
	"github.com/drummonds/slideframe/internal/slideshow"
	"github.com/drummonds/slideframe/internal/source"
	"github.com/drummonds/slideframe/internal/statusline"
	"github.com/drummonds/slideframe/internal/web"
)

type showFlags struct {
	delay    string
	display  string
	font     string
	listen   string
	logLevel string
	shuffle  bool
	watch    bool
}

func newShowCommand(configFlag *string) *cobra.Command {
	var flags showFlags

	cmd := &cobra.Command{
		Use:   "show [paths...]",
		Short: "Run the slideshow",
		Long: "Run the slideshow on the configured display. Paths may be files, " +
			"directories or glob patterns and replace slideshow.paths from the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Read(*configFlag)
			if err != nil {
				return err
			}
			applyShowFlags(cmd, cfg, flags, args)
			if err := cfg.Finish(); err != nil {
				return err
			}
			return runShow(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&flags.delay, "delay", "", "Minimum time each slide is shown, e.g. 30s")
	cmd.Flags().StringVar(&flags.display, "display", "", "Output: framebuffer or window")
	cmd.Flags().StringVar(&flags.font, "font", "", "TrueType font for the status line")
	cmd.Flags().StringVar(&flags.listen, "listen", "", "Address for the status web server, e.g. :8080")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&flags.shuffle, "shuffle", false, "Shuffle the image list")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Reload the list when watched directories change")
	return cmd
}

func applyShowFlags(cmd *cobra.Command, cfg *config.Config, flags showFlags, args []string) {
	if len(args) > 0 {
		cfg.Slideshow.Paths = args
	}
	changed := cmd.Flags().Changed
	if changed("delay") {
		cfg.Slideshow.Delay = flags.delay
	}
	if changed("display") {
		cfg.Display.Kind = flags.display
	}
	if changed("font") {
		cfg.Font.Path = flags.font
	}
	if changed("listen") {
		cfg.Web.Listen = flags.listen
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("shuffle") {
		cfg.Slideshow.Shuffle = flags.shuffle
	}
	if changed("watch") {
		cfg.Slideshow.Watch = flags.watch
	}
}

func runShow(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID))

	if cfg.Display.Kind == config.DisplayFramebuffer {
		lock := flock.New(lockPath(cfg.Display.Device))
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another slideframe is already showing on %s", cfg.Display.Device)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release lock", logging.Error(err))
			}
		}()
	}

	src, err := source.New(cfg, logger)
	if err != nil {
		return err
	}
	if w, ok := src.(source.Watcher); ok {
		defer w.Close()
	}

	renderer, err := display.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("failed to close display", logging.Error(err))
		}
	}()

	loop, err := slideshow.FromConfig(cfg, src, renderer, runID, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Web.Listen != "" {
		if err := startWeb(ctx, cfg, loop, renderer, logger); err != nil {
			return err
		}
	}

	err = loop.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("slideshow stopped")
		return nil
	case slideshow.IsSetup(err):
		logger.Error("slideshow could not start", logging.Error(err))
	case slideshow.IsDevice(err):
		logger.Error("display failed", logging.Error(err))
	}
	return err
}

func startWeb(ctx context.Context, cfg *config.Config, loop *slideshow.Loop, renderer display.Renderer, logger *slog.Logger) error {
	opts := web.Options{
		Listen: cfg.Web.Listen,
		Status: loop,
		Logger: logger,
	}
	if snap, ok := renderer.(display.Snapshotter); ok {
		opts.Snapshot = snap
	}
	if cfg.Display.Kind == config.DisplayFramebuffer {
		opts.Device = cfg.Display.Device
	}
	srv, err := web.New(opts)
	if err != nil {
		return err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			logger.Warn("web server stopped", logging.Error(err))
		}
	}()
	return nil
}

func lockPath(device string) string {
	return filepath.Join(os.TempDir(), "slideframe-"+filepath.Base(device)+".lock")
}

func newInspectCommand(configFlag *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "inspect <files...>",
		Short: "Show how the status line is built for images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Read(*configFlag)
			if err != nil {
				return err
			}
			spec, err := cfg.StatusLine.Spec()
			if err != nil {
				return err
			}
			formatter, err := statusline.Compile(spec, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := inspectFile(out, formatter, path, all); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also list every tag found in the image")
	return cmd
}

func inspectFile(out io.Writer, formatter *statusline.Formatter, path string, all bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tags, err := metadata.Read(data)
	fmt.Fprintln(out, path)
	if err != nil {
		fmt.Fprintf(out, "No usable EXIF: %v\n", err)
	}

	var rows [][]string
	for _, v := range formatter.Values(tags) {
		raw := v.Raw
		if !v.Found {
			raw = "(missing)"
		}
		rows = append(rows, []string{v.Tags, raw, v.Text})
	}
	fmt.Fprintln(out, renderTable([]string{"Tags", "Raw", "Result"}, rows, nil))
	fmt.Fprintf(out, "Status line: %q\n", formatter.Format(tags))

	if all {
		var tagRows [][]string
		for _, kv := range tags.All() {
			tagRows = append(tagRows, []string{kv[0], kv[1]})
		}
		fmt.Fprintln(out, renderTable([]string{"Tag", "Value"}, tagRows, nil))
	}
	return nil
}

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(configFlag))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			} else {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			rows := [][]string{
				{"Paths", strings.Join(cfg.Slideshow.Paths, "\n")},
				{"Delay", cfg.Slideshow.DelayDuration.String()},
				{"Byte budget", humanize.Bytes(cfg.Slideshow.ByteBudget)},
				{"Display", cfg.Display.Kind},
				{"Status line elements", fmt.Sprint(len(cfg.StatusLine.Elements))},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
