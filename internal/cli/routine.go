package cli

import (
	"fmt"

	"github.com/openclaw/gpioskill/internal/config"
	"github.com/openclaw/gpioskill/internal/skill"
	"github.com/spf13/cobra"
)

var routineImportAll bool

func init() {
	rootCmd.AddCommand(routineCmd)
	routineCmd.AddCommand(routineListCmd)
	routineCmd.AddCommand(routineRunCmd)
	routineCmd.AddCommand(routineDeleteCmd)
	routineCmd.AddCommand(routineExportCmd)
	routineCmd.AddCommand(routineImportCmd)

	routineImportCmd.Flags().BoolVar(&routineImportAll, "search-paths", false,
		"import every routine found in the routine search directories")
}

var routineCmd = &cobra.Command{
	Use:   "routine",
	Short: "Manage saved routines",
	Long:  "List, run, delete, export and import named step routines.",
}

var routineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved routines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		result := sk.Dispatch(cmd.Context(), map[string]any{"command": "list_routines"})
		printResult(result)
		if !skill.Succeeded(result) {
			return ErrFailed
		}
		return nil
	},
}

var routineRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a saved routine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		result := sk.RunRoutine(cmd.Context(), args[0])
		printResult(result)
		if !skill.Succeeded(result) {
			return ErrFailed
		}
		return nil
	},
}

var routineDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved routine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		result := sk.Dispatch(cmd.Context(), map[string]any{
			"command": "delete_routine",
			"name":    args[0],
		})
		printResult(result)
		if !skill.Succeeded(result) {
			return ErrFailed
		}
		return nil
	},
}

var routineExportCmd = &cobra.Command{
	Use:   "export <name> <file>",
	Short: "Write a saved routine to a YAML file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		if err := sk.Routines().Export(args[0], args[1]); err != nil {
			return err
		}
		printResult(map[string]any{
			"success":          true,
			"exported_routine": args[0],
			"file":             args[1],
		})
		return nil
	},
}

var routineImportCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import routine YAML files into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !routineImportAll && len(args) == 0 {
			return fmt.Errorf("pass routine files or --search-paths")
		}

		sk, err := openSkill()
		if err != nil {
			return err
		}
		defer sk.Close()

		imported := make([]string, 0, len(args))
		for _, path := range args {
			f, err := sk.Routines().Import(path)
			if err != nil {
				return err
			}
			imported = append(imported, f.Name)
		}

		if routineImportAll {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			names, err := sk.Routines().ImportDirs(cfg.RoutineSearchPaths())
			if err != nil {
				return err
			}
			imported = append(imported, names...)
		}

		printResult(map[string]any{"success": true, "imported": imported})
		return nil
	},
}
