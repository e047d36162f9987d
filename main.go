package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"gridseq/config"
	"gridseq/debug"
	"gridseq/midi"
	"gridseq/sequencer"
	"gridseq/theme"
	"gridseq/tui"
)

var opts struct {
	logPath  string
	palette  string
	headless bool
}

var rootCmd = &cobra.Command{
	Use:   "gridseq [config]",
	Short: "A grid step sequencer for MIDI pad controllers",
	Long: `gridseq turns calibrated MIDI pad controllers into an 8-part, 4-pattern,
32-step sequencer with live recording from a performance keyboard.

The config file maps every control to [device, channel, note] as written by
the calibration tool. JSON, TOML and YAML are read by extension.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.logPath, "log", "l", "",
		"Write debug logs; --log alone uses ~/.config/gridseq/debug.log, --log=FILE picks the file")
	rootCmd.PersistentFlags().Lookup("log").NoOptDefVal = debug.DefaultPath()
	rootCmd.PersistentFlags().StringVar(&opts.palette, "palette", "",
		"GIMP palette for the status display (default built-in plasma)")
	rootCmd.PersistentFlags().BoolVar(&opts.headless, "headless", false,
		"Run without the status display")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			fmt.Fprintln(os.Stderr, issue)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := config.DefaultFile
	if len(args) > 0 {
		path = args[0]
	}

	if opts.logPath != "" {
		if err := debug.Enable(opts.logPath); err != nil {
			return fault.Wrap(err, fmsg.With("open debug log"))
		}
		defer debug.Disable()
	}
	runID := uuid.NewString()
	debug.SetRun(runID)

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	debug.Log("ports", "config %s names devices %v", path, cfg.DeviceNames())

	th := theme.New(theme.Default())
	if opts.palette != "" {
		palette, err := theme.LoadGPL(opts.palette)
		if err != nil {
			return err
		}
		th = theme.New(palette)
	}

	ports, err := midi.Open(cfg.DeviceNames(), cfg.Output)
	if err != nil {
		return err
	}
	defer ports.Close()

	engine := sequencer.NewEngine(cfg, ports)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.headless {
		fmt.Printf("gridseq running headless (run %s), Ctrl+C to stop\n", runID)
		return sequencer.Run(ctx, engine, ports, nil)
	}

	return runWithDisplay(ctx, stop, engine, ports, th, runID)
}

// runWithDisplay drives the engine on its own goroutine while the status
// display runs. Quitting either side stops the other.
func runWithDisplay(ctx context.Context, stop context.CancelFunc, engine *sequencer.Engine, src sequencer.Source, th *theme.Theme, runID string) error {
	updates := make(chan sequencer.Snapshot, 1)
	done := make(chan error, 1)
	go func() {
		err := sequencer.Run(ctx, engine, src, updates)
		close(updates)
		done <- err
	}()

	p := tea.NewProgram(tui.NewModel(updates, th, runID), tea.WithAltScreen())
	_, uiErr := p.Run()

	stop()
	if err := <-done; err != nil {
		return err
	}
	if uiErr != nil {
		return fault.Wrap(uiErr, fmsg.With("run status display"))
	}
	return nil
}
