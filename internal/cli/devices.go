package cli

import (
	"github.com/openclaw/gpioskill/internal/skill"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(backendsCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List registered devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		result := sk.Dispatch(cmd.Context(), map[string]any{"command": "list_devices"})
		printResult(result)
		if !skill.Succeeded(result) {
			return ErrFailed
		}
		return nil
	},
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show available pin backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		result := sk.Dispatch(cmd.Context(), map[string]any{"command": "list_backends"})
		printResult(result)
		if !skill.Succeeded(result) {
			return ErrFailed
		}
		return nil
	},
}
