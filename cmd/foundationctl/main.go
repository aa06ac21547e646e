// foundationctl is a small operational CLI over the foundation: it
// registers its subcommands through the Hub's command dimension and
// surfaces configuration, logging and registry state. Argument parsing
// is cobra's job; the Hub only holds the callables and metadata.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/foundation-go/config"
	"github.com/provide-io/foundation-go/console"
	"github.com/provide-io/foundation-go/hub"
	"github.com/provide-io/foundation-go/logging"
)

var jsonMode bool

func main() {
	if err := run(); err != nil {
		console.Stderr().Error("foundationctl: %v", err)
		os.Exit(1)
	}
}

func run() error {
	h := hub.Get()

	registered, err := registerCommands(h)
	if err != nil {
		return err
	}

	root := &cobra.Command{
		Use:           "foundationctl",
		Short:         "Inspect and exercise the foundation runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonMode, "json", false, "emit machine-readable JSON output")

	// Every hub command becomes a cobra subcommand; the hub remains
	// the source of truth for names, help text and hiddenness.
	for _, name := range registered {
		cmd, err := h.GetCommand(name)
		if err != nil {
			return err
		}
		root.AddCommand(&cobra.Command{
			Use:     cmd.Name,
			Short:   cmd.Help,
			Aliases: cmd.Aliases,
			Hidden:  cmd.Hidden,
			RunE: func(c *cobra.Command, args []string) error {
				return cmd.Run(c.Context(), args)
			},
		})
	}

	return root.ExecuteContext(context.Background())
}

func registerCommands(h *hub.Hub) ([]string, error) {
	commands := []hub.Command{
		{
			Name:     "info",
			Help:     "show the loaded foundation configuration",
			Category: "inspection",
			Run:      cmdInfo(h),
		},
		{
			Name:     "config-export",
			Help:     "export a named configuration (sensitive fields omitted)",
			Aliases:  []string{"export"},
			Category: "inspection",
			Run:      cmdConfigExport(h),
		},
		{
			Name:     "commands",
			Help:     "list registered commands",
			Category: "inspection",
			Run:      cmdCommands(h),
		},
		{
			Name:     "log-demo",
			Help:     "emit sample events through the logging pipeline",
			Hidden:   true,
			Category: "diagnostics",
			Run:      cmdLogDemo(h),
		},
	}
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		if err := h.AddCommand(cmd); err != nil {
			return nil, err
		}
		names = append(names, cmd.Name)
	}
	return names, nil
}

func output(v any) error {
	out := console.Stdout()
	if jsonMode {
		out.SetJSONMode(true)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	out.Print("%s", data)
	return nil
}

func cmdInfo(h *hub.Hub) hub.CommandFunc {
	return func(ctx context.Context, args []string) error {
		if err := h.InitializeFoundation(nil, nil); err != nil {
			return err
		}
		tc := h.TelemetryConfig()
		return output(map[string]any{
			"service_name":      tc.ServiceName,
			"service_version":   tc.ServiceVersion,
			"default_level":     tc.DefaultLevel,
			"console_formatter": tc.ConsoleFormatter,
			"json_output":       tc.JSONOutput,
			"trace_sample_rate": tc.TraceSampleRate,
			"metrics_enabled":   tc.MetricsEnabled,
			"event_sets":        tc.EnabledEventSets,
		})
	}
}

func cmdConfigExport(h *hub.Hub) hub.CommandFunc {
	return func(ctx context.Context, args []string) error {
		if err := h.InitializeFoundation(nil, nil); err != nil {
			return err
		}
		name := "telemetry"
		if len(args) > 0 {
			name = args[0]
		}
		v, err := h.GetComponent(hub.SingletonConfigManager, hub.DimensionSingleton)
		if err != nil {
			return err
		}
		manager, ok := v.(*config.ConfigManager)
		if !ok {
			return fmt.Errorf("config manager singleton is missing")
		}
		exported, err := manager.Export(name, false)
		if err != nil {
			return err
		}
		return output(exported)
	}
}

func cmdCommands(h *hub.Hub) hub.CommandFunc {
	return func(ctx context.Context, args []string) error {
		return output(h.ListCommands())
	}
}

func cmdLogDemo(h *hub.Hub) hub.CommandFunc {
	return func(ctx context.Context, args []string) error {
		if err := h.InitializeFoundation(nil, nil); err != nil {
			return err
		}
		log := logging.GetLogger("foundationctl.demo")
		log.Info("demo_request", "http_method", "GET", "http_status", 200, "path", "/healthz")
		log.Warn("demo_slow_query", "db_operation", "select", "duration_ms", 1250)
		log.ErrorWith(fmt.Errorf("upstream timed out"), "demo_failure", "http_status", 504)
		return nil
	}
}
