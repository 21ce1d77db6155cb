// Package cli provides the gpioskill command line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openclaw/gpioskill/internal/config"
	"github.com/openclaw/gpioskill/internal/logging"
	"github.com/openclaw/gpioskill/internal/skill"
	"github.com/spf13/cobra"
)

// ErrFailed signals a command whose JSON result was already printed
// with success=false; main maps it to exit code 1 without extra output.
var ErrFailed = errors.New("command failed")

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	configPath string
	logLevel   string

	jsonPayload string
)

var rootCmd = &cobra.Command{
	Use:   "gpioskill",
	Short: "Control GPIO devices by name or pin number",
	Long: `gpioskill maps named or numbered hardware pins to actions: activate,
read, PWM, servo angles, serial I/O and LCD text. A single JSON payload
selects the command; sequences chain commands with template references
between steps, and routines persist sequences under a name.

Pass the payload with --json or pipe it to stdin:

    gpioskill --json '{"command":"activate","device":"kitchen_light"}'
    echo '{"command":"run_routine","name":"morning"}' | gpioskill

The JSON result is written to stdout; the exit code is 0 when the
result reports success and 1 otherwise.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDispatch(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace..error)")
	rootCmd.Flags().StringVar(&jsonPayload, "json", "", `JSON payload, e.g. '{"command":"activate","device":"17"}'`)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("gpioskill {{.Version}}\n")
}

// openSkill loads configuration and assembles the skill.
func openSkill() (*skill.Skill, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.Setup(cfg.LogLevel)
	return skill.New(cfg)
}

func runDispatch(cmd *cobra.Command) error {
	raw := jsonPayload
	if raw == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}
	if raw == "" {
		printResult(map[string]any{
			"success": false,
			"error":   "No input. Use --json '...' or pipe JSON to stdin.",
		})
		return ErrFailed
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		printResult(map[string]any{
			"success": false,
			"error":   fmt.Sprintf("Invalid JSON: %v", err),
		})
		return ErrFailed
	}

	sk, err := openSkill()
	if err != nil {
		return err
	}
	defer sk.Close()

	result := sk.Dispatch(cmd.Context(), payload)
	printResult(result)
	if !skill.Succeeded(result) {
		return ErrFailed
	}
	return nil
}

// printResult writes a result as one line of JSON on stdout.
func printResult(result any) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
	}
}
