package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/model"
)

// runTUI logs to the configured file because the terminal belongs to the UI.
func runTUI(ctx context.Context, cfg *model.AppConfig) error {
	f, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer f.Close()

	log := logger.Init(f, cfg.Log.Level, cfg.Log.JSON)

	svc, st, err := openService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	p := tea.NewProgram(app.New(svc, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
