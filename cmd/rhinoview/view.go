package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"rhinoview/internal/compute"
	"rhinoview/internal/config"
	"rhinoview/internal/logging"
	"rhinoview/internal/tui"
	"rhinoview/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view [definition]",
	Short: "Open the interactive slider viewer (default)",
	Long: `Loads a Grasshopper definition (file path, URL, or a name the compute
server resolves), evaluates it with the configured slider defaults and draws
the result. Adjust sliders with the arrow keys and press enter to re-evaluate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.Args = cobra.MaximumNArgs(1)
	for _, c := range []*cobra.Command{rootCmd, viewCmd} {
		c.Flags().Bool("wireframe", false, "start with wireframe materials")
		c.Flags().String("overlap", "", "what a new evaluation does to one in flight: cancel or queue")
		c.Flags().String("export-dir", "", "directory exports are written to")
	}
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Definition.Source = args[0]
	}
	if cmd.Flags().Changed("wireframe") {
		cfg.Viewer.Wireframe, _ = cmd.Flags().GetBool("wireframe")
	}
	if v, _ := cmd.Flags().GetString("overlap"); v != "" {
		cfg.Viewer.Overlap = v
	}
	if v, _ := cmd.Flags().GetString("export-dir"); v != "" {
		cfg.Viewer.ExportDir = v
	}
	policy, err := viewer.ParseOverlapPolicy(cfg.Viewer.Overlap)
	if err != nil {
		return err
	}
	// before the UI takes over the terminal
	if err := resolveCompute(cfg); err != nil {
		return err
	}

	logger, closeLog, err := tuiLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	def, err := loadDefinition(ctx, cfg.Definition.Source, logger)
	if err != nil {
		return err
	}

	client := newClient(cfg, logger)
	state := viewer.NewState(1)
	mat := viewer.NewMaterializer(state, viewer.Options{
		Wireframe: cfg.Viewer.Wireframe,
		FitOffset: cfg.Viewer.FitOffset,
		Logger:    logger,
	})
	ctl := viewer.NewController(client, compute.NewCollector(cfg.Definition.Names()...), def,
		viewer.WithPolicy(policy),
		viewer.WithControllerLogger(logger),
	)
	logger.Info("viewer starting", "compute", client.BaseURL(), "definition", def.Name, "overlap", policy.String())

	m := tui.New(tui.Options{
		Params:       cfg.Definition.Parameters,
		Controller:   ctl,
		Materializer: mat,
		State:        state,
		ExportDir:    cfg.Viewer.ExportDir,
		Logger:       logger,
		Ctx:          ctx,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// tuiLogger writes to log.file since the UI owns the terminal. Without a
// file, logs are dropped.
func tuiLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.File == "" {
		return logging.NewNop(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewWriter(f, level), func() { f.Close() }, nil
}
