package cmd

import (
	"fmt"

	"github.com/saltyorg/rtsweep/internal/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and sweep",
	Long:  "Validate the configuration file and the sweep it describes.",
}

var validateConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate config.yml",
	Long:  "Validate the configuration file for required fields, existing files and a well-formed sweep.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(GetConfigPath())
		if err != nil {
			return err
		}
		if _, err := cfg.Sweep(); err != nil {
			return err
		}

		fmt.Println("✅ Config is valid")
		return nil
	},
}

var validateSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Build every run without writing it",
	Long: `Build every run in memory without writing anything.

This evaluates all generators against the template, so it catches unknown
conditions, species and keys that config validation alone cannot see.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(GetConfigPath())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		p, err := loadPipeline(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		runs, err := p.build(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("✅ Sweep is valid: %d entries over %d runs\n", len(p.spec.Entries), len(runs))
		return nil
	},
}

func init() {
	validateCmd.AddCommand(validateConfigCmd)
	validateCmd.AddCommand(validateSweepCmd)
	rootCmd.AddCommand(validateCmd)
}
