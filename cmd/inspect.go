package cmd

import (
	"fmt"

	"github.com/saltyorg/rtsweep/internal/config"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/sweep"
	"github.com/saltyorg/rtsweep/internal/template"
	"github.com/spf13/cobra"
)

var inspectReportTemplate string

var inspectCmd = &cobra.Command{
	Use:   "inspect [template]",
	Short: "Print what a template exposes to a sweep",
	Long: `Print the blocks, conditions and grid rows a template exposes to a sweep.

With a template argument only that file is read. Without one, the template
named in the config is read and the sweep's shared values are listed too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			tmpl *inputfile.Template
			eval *sweep.Evaluated
			err  error
		)

		if len(args) > 0 {
			tmpl, err = inputfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading template: %w", err)
			}
		} else {
			cfg, err := config.Load(GetConfigPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			p, err := loadPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if _, err := p.build(cmd.Context()); err != nil {
				return fmt.Errorf("evaluating sweep: %w", err)
			}
			tmpl, eval = p.template, p.plan.Evaluated()
		}

		report, err := template.BuildReport(tmpl, eval)
		if err != nil {
			return err
		}

		engine := template.New()
		if inspectReportTemplate != "" {
			err = engine.LoadFile(template.InspectTemplateName, inspectReportTemplate)
		} else {
			err = engine.LoadString(template.InspectTemplateName, template.DefaultInspectTemplate)
		}
		if err != nil {
			return fmt.Errorf("loading report template: %w", err)
		}

		output, err := engine.Render(template.InspectTemplateName, report)
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}

		fmt.Print(output)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectReportTemplate, "report-template", "", "path to a custom report template")
	rootCmd.AddCommand(inspectCmd)
}
