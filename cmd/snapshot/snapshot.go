// Snapshot renders the first slide of a slideshow into a PNG instead of
// onto a display, to check layout and status lines on a desktop.
package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/logging"
	"github.com/drummonds/slideframe/internal/slideshow"
	"github.com/drummonds/slideframe/internal/source"
)

type options struct {
	config string
	out    string
	width  int
	height int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "snapshot [paths...]",
		Short:         "Render the first slide to a PNG file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "snapshot.png", "Output PNG file")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Frame width (default display.width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Frame height (default display.height)")
	return cmd
}

func run(ctx context.Context, opts options, paths []string, stdout io.Writer) error {
	cfg, _, _, err := config.Read(opts.config)
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		cfg.Slideshow.Paths = paths
	}
	cfg.Slideshow.Shuffle = false
	cfg.Slideshow.Watch = false
	cfg.Slideshow.Prefetch = false
	if opts.width > 0 {
		cfg.Display.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Display.Height = opts.height
	}
	// The frame never reaches a device.
	cfg.Display.Kind = config.DisplayWindow
	if err := cfg.Finish(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID))

	font, err := display.LoadFont(cfg.Font)
	if err != nil {
		return err
	}
	mem := display.NewMemory(cfg.Display.Width, cfg.Display.Height, cfg.Display.BackgroundColour, font)
	defer mem.Close()

	src, err := source.New(cfg, logger)
	if err != nil {
		return err
	}
	loop, err := slideshow.FromConfig(cfg, src, mem, runID, logger)
	if err != nil {
		return err
	}
	if err := loop.ShowOnce(ctx); err != nil {
		return err
	}

	img := mem.Snapshot()
	if img == nil {
		return errors.New("nothing was drawn")
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", opts.out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	st := loop.Status()
	fmt.Fprintf(stdout, "%s -> %s (%s)\n", st.Path, opts.out, img.Bounds().Size())
	fmt.Fprintf(stdout, "Status line: %q\n", st.Text)
	return nil
}
