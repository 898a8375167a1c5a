package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rhinoview/internal/compute"
	"rhinoview/internal/export"
	"rhinoview/internal/viewer"
)

var exportCmd = &cobra.Command{
	Use:   "export [definition]",
	Short: "Evaluate once and write the result to a file",
	Long: `Evaluates the definition with the slider defaults, overridden by
--set name=value, and writes the scene as STL or a document archive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Definition.Source = args[0]
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Viewer.ExportDir
		}
		values := cfg.Definition.Defaults()
		sets, _ := cmd.Flags().GetStringToString("set")
		for name, raw := range sets {
			if _, ok := values[name]; !ok {
				return fmt.Errorf("unknown parameter %q (have %s)", name, strings.Join(cfg.Definition.Names(), ", "))
			}
			var v float64
			if _, err := fmt.Sscan(raw, &v); err != nil {
				return fmt.Errorf("parameter %s: %q is not a number", name, raw)
			}
			for _, p := range cfg.Definition.Parameters {
				if p.Name == name {
					v = p.Clamp(v)
				}
			}
			values[name] = v
		}

		if err := resolveCompute(cfg); err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		def, err := loadDefinition(ctx, cfg.Definition.Source, logger)
		if err != nil {
			return err
		}

		state := viewer.NewState(1)
		mat := viewer.NewMaterializer(state, viewer.Options{FitOffset: cfg.Viewer.FitOffset, Logger: logger})
		ctl := viewer.NewController(newClient(cfg, logger), compute.NewCollector(cfg.Definition.Names()...), def,
			viewer.WithControllerLogger(logger))

		res, err := ctl.Evaluate(ctx, values)
		if err != nil {
			return err
		}
		if err := mat.MaterializeGeneration(ctx, res.Generation, res.Response); err != nil {
			return err
		}
		path, err := export.WriteFile(dir, format, state, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "stl", "stl, binary or document")
	exportCmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	exportCmd.Flags().StringToString("set", nil, "slider values, e.g. --set Height=70,Radius=5")
}
