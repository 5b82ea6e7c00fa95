// Awesomation Hub - home automation for Z-Wave meshes, switches and
// linked cloud thermostats.
//
// This is the main entry point. The serve command wires the registries,
// the proxy link over MQTT, push publishers and the HTTP API; the other
// commands are maintenance tools that share the same configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/Stainless-Nata/awesomation/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when neither --config nor the environment names a file.
	defaultConfigPath = "configs/config.yaml"

	// configEnv overrides the default configuration path.
	configEnv = "AWESOMATION_CONFIG"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configPath string
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand creates the awesomation command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "awesomation",
		Short:         "Awesomation home automation hub",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A missing .env file is normal outside development.
			_ = godotenv.Load() //nolint:errcheck // optional file
			if opts.configPath == "" {
				opts.configPath = getConfigPath()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to the YAML config file (default $"+configEnv+" or "+defaultConfigPath+")")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newDriversCommand())
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

// getConfigPath returns the configuration file path.
// Uses AWESOMATION_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}
