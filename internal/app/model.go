// Package app is the Bubble Tea front end: one page whose regions follow
// the session lifecycle (record, review, processing, notes).
package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lectern/internal/audio"
	"lectern/internal/markdown"
	"lectern/internal/notes"
	"lectern/internal/session"
	"lectern/internal/ui"
)

const (
	frameInterval   = time.Second / 30
	spinnerInterval = 120 * time.Millisecond
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the root bubbletea model for the lectern TUI.
type Model struct {
	machine  *session.Machine
	recorder *audio.Recorder
	analyzer *audio.Analyzer
	gen      notes.Generator
	notesDir string

	// UI state
	width    int
	height   int
	spectrum []uint8
	blocks   []markdown.Block
	spinner  int
	scroll   int
	playing  bool
	notice   string

	// timerGen guards the recurring tick loops: bumping it orphans any
	// tick already scheduled for a previous capture.
	timerGen int
}

// New creates a model over the given collaborators.
func New(machine *session.Machine, recorder *audio.Recorder, analyzer *audio.Analyzer, gen notes.Generator, notesDir string) Model {
	return Model{
		machine:  machine,
		recorder: recorder,
		analyzer: analyzer,
		gen:      gen,
		notesDir: notesDir,
	}
}

// Init has nothing to do until the user acts.
func (m Model) Init() tea.Cmd {
	return nil
}

// startCaptureCmd acquires the microphone.
func startCaptureCmd(r *audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		if err := r.Start(context.Background()); err != nil {
			return captureFailedMsg{err: err}
		}
		return captureStartedMsg{}
	}
}

// stopCaptureCmd finalizes the recording into an artifact.
func stopCaptureCmd(r *audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		art, path, err := r.Stop()
		return captureStoppedMsg{art: art, path: path, err: err}
	}
}

// generateCmd invokes the note-generation collaborator. The result carries
// the originating session ID so a stale resolution can be dropped.
func generateCmd(gen notes.Generator, sessionID string, art session.Artifact) tea.Cmd {
	return func() tea.Msg {
		text, err := gen.Generate(context.Background(), art)
		if err != nil {
			return notesFailedMsg{sessionID: sessionID, err: err}
		}
		return notesReadyMsg{sessionID: sessionID, text: text}
	}
}

// timerTickCmd schedules the next 1-second elapsed tick.
func timerTickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{gen: gen}
	})
}

// frameTickCmd schedules the next visualizer refresh.
func frameTickCmd(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameTickMsg{gen: gen}
	})
}

func spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// playCmd replays the captured audio with the platform player.
func playCmd(path string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		if runtime.GOOS == "darwin" {
			cmd = exec.Command("afplay", path)
		} else {
			cmd = exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path)
		}
		if err := cmd.Run(); err != nil {
			return playbackDoneMsg{err: fmt.Errorf("play audio: %w", err)}
		}
		return playbackDoneMsg{}
	}
}

// exportNotesCmd writes the generated notes to a markdown file.
func exportNotesCmd(dir, text string) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+"_notes.md")
		if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
			return exportDoneMsg{err: fmt.Errorf("export notes: %w", err)}
		}
		return exportDoneMsg{path: path}
	}
}

// saveAudioCmd writes the captured audio next to the exported notes.
func saveAudioCmd(dir string, art session.Artifact) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+"_audio.wav")
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			return exportDoneMsg{err: fmt.Errorf("save audio: %w", err)}
		}
		return exportDoneMsg{path: path}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case captureStartedMsg:
		if err := m.machine.CaptureStarted(); err != nil {
			// The machine moved on while acquisition was in flight; release
			// the device again.
			return m, stopCaptureCmd(m.recorder)
		}
		m.analyzer.Activate()
		m.notice = ""
		m.blocks = nil
		m.scroll = 0
		m.timerGen++
		return m, tea.Batch(timerTickCmd(m.timerGen), frameTickCmd(m.timerGen))

	case captureFailedMsg:
		_ = m.machine.CaptureFailed(msg.err)
		return m, nil

	case timerTickMsg:
		if msg.gen != m.timerGen || m.machine.State() != session.StateCapturing {
			return m, nil
		}
		m.machine.Tick()
		return m, timerTickCmd(msg.gen)

	case frameTickMsg:
		if msg.gen != m.timerGen || m.machine.State() != session.StateCapturing {
			return m, nil
		}
		m.spectrum = m.analyzer.Snapshot()
		return m, frameTickCmd(msg.gen)

	case captureStoppedMsg:
		if msg.art == nil && msg.err == nil {
			return m, nil // stop of an already-stopped capture
		}
		m.analyzer.Deactivate()
		m.timerGen++ // cancels the tick loops exactly once
		m.spectrum = nil
		if msg.err != nil {
			_ = m.machine.CaptureAborted(msg.err)
			return m, nil
		}
		pb := session.NewPlaybackHandle(msg.path)
		if _, err := m.machine.CaptureStopped(msg.art, pb); err != nil {
			_ = pb.Release()
		}
		return m, nil

	case notesReadyMsg:
		m.machine.NotesReady(msg.sessionID, msg.text)
		if m.machine.State() == session.StateCompleted {
			m.blocks = markdown.Parse(msg.text)
			m.scroll = 0
		}
		return m, nil

	case notesFailedMsg:
		m.machine.GenerationFailed(msg.sessionID, msg.err)
		return m, nil

	case spinnerTickMsg:
		if m.machine.State() != session.StateProcessing {
			return m, nil
		}
		m.spinner = (m.spinner + 1) % len(spinnerFrames)
		return m, spinnerTickCmd()

	case playbackDoneMsg:
		m.playing = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = "Saved: " + msg.path
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses per lifecycle state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		if m.recorder.Active() {
			// Nothing will ever play this capture, so drop its file too.
			if _, path, err := m.recorder.Stop(); err == nil && path != "" {
				os.Remove(path)
			}
		}
		return m, tea.Quit
	case KeyDismiss:
		m.machine.ClearErr()
		m.notice = ""
		return m, nil
	}

	switch m.machine.State() {
	case session.StateIdle:
		if key == KeySpace || key == KeyRecord {
			return m, startCaptureCmd(m.recorder)
		}

	case session.StateCapturing:
		if key == KeySpace {
			return m, stopCaptureCmd(m.recorder)
		}

	case session.StateReview:
		switch key {
		case KeyGenerate:
			sess := m.machine.Session()
			if sess == nil {
				return m, nil
			}
			id, err := m.machine.BeginGeneration()
			if err != nil {
				return m, nil
			}
			return m, tea.Batch(generateCmd(m.gen, id, *sess.Audio), spinnerTickCmd())
		case KeyPlay:
			if sess := m.machine.Session(); sess != nil && !m.playing {
				m.playing = true
				return m, playCmd(sess.Playback.Path())
			}
		case KeyDiscard:
			_ = m.machine.Discard()
			m.notice = ""
		case KeySaveAudio:
			if sess := m.machine.Session(); sess != nil {
				return m, saveAudioCmd(m.notesDir, *sess.Audio)
			}
		}

	case session.StateCompleted:
		switch key {
		case KeyNew:
			_ = m.machine.Reset()
			return m, startCaptureCmd(m.recorder)
		case KeyExport:
			if sess := m.machine.Session(); sess != nil && sess.NotesSet {
				return m, exportNotesCmd(m.notesDir, sess.Notes)
			}
		case KeyDiscard:
			_ = m.machine.Reset()
			m.blocks = nil
			m.notice = ""
		case KeyUp:
			if m.scroll > 0 {
				m.scroll--
			}
		case KeyDown:
			if m.scroll < m.maxScroll() {
				m.scroll++
			}
		}

	case session.StateFailed:
		if key == KeyNew || key == KeyDiscard {
			_ = m.machine.Reset()
		}
	}

	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderBody())

	if err := m.machine.Err(); err != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(err))
	}
	if m.notice != "" {
		sections = append(sections, ui.DimStyle.Render(m.notice))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("LECTERN")

	var dot string
	switch m.machine.State() {
	case session.StateCapturing:
		dot = "  " + ui.RecordingDotStyle.Render("● REC "+formatElapsed(m.machine.Elapsed()))
	case session.StateProcessing:
		dot = "  " + ui.SpinnerStyle.Render(spinnerFrames[m.spinner]+" generating notes")
	default:
		dot = "  " + ui.IdleDotStyle.Render("○ "+m.machine.State().String())
	}

	return title + dot
}

func (m Model) renderBody() string {
	switch m.machine.State() {
	case session.StateIdle:
		return m.renderIdle()
	case session.StateCapturing:
		return m.renderCapturing()
	case session.StateReview:
		return m.renderReview()
	case session.StateProcessing:
		return m.renderProcessing()
	case session.StateCompleted:
		return m.renderCompleted()
	case session.StateFailed:
		return ui.ErrorTextStyle.Render("  Something went wrong. Press d to start over.")
	}
	return ""
}

func (m Model) renderIdle() string {
	return "\n" + ui.DimStyle.Render("  Press Space to start recording a lecture") + "\n"
}

func (m Model) renderCapturing() string {
	timer := ui.TimerStyle.Render("  " + formatElapsed(m.machine.Elapsed()))
	return "\n" + timer + "\n\n  " + renderSpectrum(m.spectrum, max(16, min(m.width-4, 64))) + "\n"
}

func (m Model) renderReview() string {
	sess := m.machine.Session()
	if sess == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  Recording ready — " + ui.TimerStyle.Render(formatElapsed(sess.DurationSeconds)) + "\n")
	b.WriteString(ui.DimStyle.Render(fmt.Sprintf("  %d KB %s", len(sess.Audio.Data)/1024, sess.Audio.MIME)) + "\n\n")
	if m.playing {
		b.WriteString(ui.DimStyle.Render("  ▶ playing...") + "\n")
	} else {
		b.WriteString(ui.DimStyle.Render("  Generate notes, replay the take, or discard it.") + "\n")
	}
	return b.String()
}

func (m Model) renderProcessing() string {
	return "\n  " + ui.SpinnerStyle.Render(spinnerFrames[m.spinner]) +
		" Turning the recording into structured notes..." + "\n" +
		ui.DimStyle.Render("  This usually takes a few seconds.") + "\n"
}

func (m Model) renderCompleted() string {
	lines := renderBlocks(m.blocks, max(20, m.width-6))

	visible := m.visibleLines()
	start := min(m.scroll, max(0, len(lines)-visible))
	end := min(len(lines), start+visible)

	var b strings.Builder
	b.WriteString("\n")
	for _, line := range lines[start:end] {
		b.WriteString("  " + line + "\n")
	}
	if end < len(lines) {
		b.WriteString(ui.DimStyle.Render(fmt.Sprintf("  ··· %d more lines ···", len(lines)-end)) + "\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var parts []string
	add := func(key, desc string) {
		parts = append(parts, ui.FooterKeyStyle.Render(key)+ui.FooterDescStyle.Render(" "+desc))
	}

	switch m.machine.State() {
	case session.StateIdle:
		add("Space", "Record")
	case session.StateCapturing:
		add("Space", "Stop")
	case session.StateReview:
		add("g", "Generate notes")
		add("p", "Play")
		add("s", "Save audio")
		add("d", "Discard")
	case session.StateProcessing:
		// No actions while the request is in flight.
	case session.StateCompleted:
		add("n", "New recording")
		add("e", "Export")
		add("d", "Delete")
		add("↑↓", "Scroll")
	case session.StateFailed:
		add("d", "Start over")
	}
	if m.machine.Err() != "" || m.notice != "" {
		add("Esc", "Dismiss")
	}
	add("q", "Quit")

	return strings.Join(parts, "  ")
}

func (m Model) visibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + divider(1) + error/notice(2) + footer(1) + padding
	return max(5, m.height-7)
}

func (m Model) maxScroll() int {
	lines := renderBlocks(m.blocks, max(20, m.width-6))
	return max(0, len(lines)-m.visibleLines())
}

// renderSpectrum draws the amplitude bins as a bar strip, downsampling the
// bins to the given width.
func renderSpectrum(bins []uint8, width int) string {
	glyphs := []rune("▁▂▃▄▅▆▇█")
	if width <= 0 {
		width = 1
	}

	var b strings.Builder
	for col := 0; col < width; col++ {
		var v uint8
		if len(bins) > 0 {
			lo := col * len(bins) / width
			hi := (col + 1) * len(bins) / width
			for i := lo; i < hi && i < len(bins); i++ {
				if bins[i] > v {
					v = bins[i]
				}
			}
		}
		g := string(glyphs[int(v)*len(glyphs)/256])
		switch {
		case v == 0:
			b.WriteString(ui.DimStyle.Render("▁"))
		case v > 160:
			b.WriteString(ui.SpectrumHighStyle.Render(g))
		default:
			b.WriteString(ui.SpectrumLowStyle.Render(g))
		}
	}
	return b.String()
}

// renderBlocks styles parsed note blocks one line each.
func renderBlocks(blocks []markdown.Block, width int) []string {
	var lines []string
	for _, blk := range blocks {
		switch blk.Kind {
		case markdown.KindSpacer:
			lines = append(lines, "")
		case markdown.KindHeading:
			var style = ui.Heading1Style
			if blk.Level == 2 {
				style = ui.Heading2Style
			} else if blk.Level == 3 {
				style = ui.Heading3Style
			}
			for _, l := range wrapText(blk.Text, width) {
				lines = append(lines, style.Render(l))
			}
		case markdown.KindListItem:
			wrapped := wrapText(blk.Text, max(10, width-2))
			lines = append(lines, ui.BulletStyle.Render("• ")+wrapped[0])
			for _, l := range wrapped[1:] {
				lines = append(lines, "  "+l)
			}
		case markdown.KindBoldParagraph:
			for _, l := range wrapText(blk.Text, width) {
				lines = append(lines, ui.BoldTextStyle.Render(l))
			}
		default:
			lines = append(lines, wrapText(blk.Text, width)...)
		}
	}
	return lines
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		if current == "" {
			current = word
		} else if len(current)+1+len(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
