// Package cli wires configuration and collaborators into the lectern TUI.
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"lectern/config"
	"lectern/internal/app"
	"lectern/internal/audio"
	"lectern/internal/notes"
	"lectern/internal/session"
	"lectern/internal/version"
)

func NewRootCmd(cfg *config.Config) *cobra.Command {
	var notesDir string
	var model string

	rootCmd := &cobra.Command{
		Use:   "lectern",
		Short: "Record a lecture and turn it into structured notes",
		Long:  "Records audio from the microphone, lets you review the take, and generates structured markdown notes with Gemini.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if notesDir != "" {
				cfg.NotesDir = notesDir
			}
			if model != "" {
				cfg.Model = model
			}
			return runTUI(cfg)
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.Flags().StringVar(&notesDir, "notes-dir", "", "Directory for exported notes and audio")
	rootCmd.Flags().StringVar(&model, "model", "", "Gemini model name")

	return rootCmd
}

func runTUI(cfg *config.Config) error {
	if os.Getenv("LECTERN_DEBUG") != "" {
		f, err := tea.LogToFile("lectern-debug.log", "lectern")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	}

	gen, err := notes.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.Model, cfg.NotesPrompt)
	if err != nil {
		return err
	}

	analyzer := audio.NewAnalyzer()
	recorder := audio.NewRecorder(audio.NewFFmpegSource(cfg.InputDevice), analyzer.Feed)
	machine := session.NewMachine()

	m := app.New(machine, recorder, analyzer, gen, cfg.NotesDir)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	// Whatever the UI left behind gets cleaned up on the way out.
	if sess := machine.Session(); sess != nil {
		_ = sess.Playback.Release()
	}
	return nil
}
