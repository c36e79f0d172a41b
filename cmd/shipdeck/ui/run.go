package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"shipdeck/internal/api"
	"shipdeck/internal/auth"
	"shipdeck/internal/batch"
	"shipdeck/internal/config"
)

// Run launches the wizard and blocks until the user quits. A non-zero batchID
// resumes an existing batch at the review step.
func Run(client *api.Client, session *auth.Session, store *batch.Store, cfg *config.Config, log *zap.Logger, batchID int64) error {
	m := NewModel(client, session, store, cfg, log, batchID)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
