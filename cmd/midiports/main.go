// Command midiports lists MIDI ports and shows how incoming notes map onto a
// gridseq config, for checking or writing a mapping by hand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"gridseq/config"
	"gridseq/midi"
	"gridseq/sequencer"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "midiports",
	Short:         "MIDI port tools for gridseq",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all MIDI ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, err := midi.ListPorts()
		if err != nil {
			return err
		}
		fmt.Println("=== MIDI Input Ports ===")
		for i, name := range ins {
			fmt.Printf("  %d: %s%s\n", i, name, launchpadMark(name))
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, name := range outs {
			fmt.Printf("  %d: %s%s\n", i, name, launchpadMark(name))
		}
		return nil
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor [device...]",
	Short: "Print incoming notes as [device, channel, note] with their control",
	Long: `Listens to the named input ports, or every device in the config when none
are named, and prints each note. With a config the control it drives is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadOptional()
		devices := args
		if len(devices) == 0 {
			devices = cfg.DeviceNames()
		}
		if len(devices) == 0 {
			return fault.New("no devices to monitor",
				fmsg.WithDesc("no devices", "Name input ports or pass --config with a mapping"))
		}

		ports, err := midi.Open(devices, "")
		if err != nil {
			return err
		}
		defer ports.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", strings.Join(devices, ", "))
		return monitor(ctx, ports, cfg)
	},
}

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "Light every mapped control to check a config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ports, err := midi.Open(cfg.DeviceNames(), cfg.Output)
		if err != nil {
			return err
		}
		defer ports.Close()

		if err := paint(cfg, ports, midi.LEDFull); err != nil {
			return err
		}
		fmt.Println("Press Enter to clear...")
		fmt.Scanln()
		return paint(cfg, ports, midi.LEDOff)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out.json>",
	Short: "Rewrite a TOML or YAML mapping as the JSON the sequencer and calibration tool share",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Save(args[1]); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d devices)\n", args[1], len(cfg.DeviceNames()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile,
		"Controller mapping to classify notes with")
	rootCmd.AddCommand(listCmd, monitorCmd, ledsCmd, convertCmd)
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

func launchpadMark(name string) string {
	if midi.IsLaunchpad(name) {
		return "  (Launchpad)"
	}
	return ""
}

// loadOptional returns an empty mapping when the config can't be read
func loadOptional() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &config.Config{}
	}
	return cfg
}

func monitor(ctx context.Context, src sequencer.Source, cfg *config.Config) error {
	ticker := time.NewTicker(sequencer.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for _, batch := range src.Drain() {
			for _, msg := range midi.Decode(batch.Data) {
				fmt.Println(describe(cfg, batch.Device, msg))
			}
		}
	}
}

func describe(cfg *config.Config, device string, msg midi.NoteMessage) string {
	line := fmt.Sprintf("[%q, %d, %d]  %-7s vel %3d", device, msg.Channel, msg.Note, msg.Side, msg.Velocity)
	if key, ok := sequencer.Classify(cfg, device, msg.Channel, msg.Note); ok {
		line += "  -> " + key.String()
	}
	return line
}

// paint sets every mapped control on each connected device to one color
func paint(cfg *config.Config, out sequencer.Output, color uint8) error {
	byDevice := make(map[string][]gomidi.Message)
	var order []string
	add := func(b *config.Binding) {
		if b == nil {
			return
		}
		if _, ok := byDevice[b.Device]; !ok {
			order = append(order, b.Device)
		}
		byDevice[b.Device] = append(byDevice[b.Device], midi.LED(b.Channel, b.Note, color))
	}
	for _, label := range config.ListLabels {
		list := cfg.List(label)
		for i := range list {
			add(&list[i])
		}
	}
	for _, label := range config.ToggleLabels {
		add(cfg.Single(label))
	}

	for _, device := range order {
		s := out.Device(device)
		if s == nil {
			fmt.Printf("  %s: not connected\n", device)
			continue
		}
		if err := s.Send(byDevice[device]); err != nil {
			return err
		}
	}
	return nil
}
