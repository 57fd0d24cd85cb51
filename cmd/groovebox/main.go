// Command groovebox is a terminal step sequencer front end for the engine:
// a 9x16 drum grid, seed material per genre, per-role mutes and project
// save/load.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/beatsmith/groovebox"
	"github.com/beatsmith/groovebox/internal/config"
	"github.com/beatsmith/groovebox/internal/projector"
	"github.com/beatsmith/groovebox/internal/song"
)

var genres = []string{"hip-hop", "rock", "jazz", "electronic"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a5ffb0"))
	labelStyle  = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("#9999aa"))
	mutedStyle  = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("#555566")).Strikethrough(true)
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc66"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666677"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	session     *groovebox.Session
	projectPath string
	genreIdx    int
	cursorX     int
	cursorY     int
	activeStep  int
	status      string
}

func initialModel(session *groovebox.Session, projectPath string) model {
	m := model{
		session:     session,
		projectPath: projectPath,
		activeStep:  -1,
		status:      "space: toggle | enter: play",
	}
	if projectPath != "" {
		if err := session.LoadProject(projectPath); err == nil {
			m.status = "loaded " + projectPath
		}
	}
	if session.Pattern() == nil {
		session.SetPattern(song.SeedPattern(genres[0], 1))
		session.SetMelody(song.SeedMelody(1))
		session.SetHarmony(song.SeedHarmony(1))
	}
	return m
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.activeStep = m.session.ActiveStep()
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	steps := 16
	if p := m.session.Pattern(); p != nil {
		steps = p.Steps()
	}
	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Close()
		return m, tea.Quit
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < steps-1 {
			m.cursorX++
		}
	case "up", "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "down", "j":
		if m.cursorY < song.DrumCount-1 {
			m.cursorY++
		}
	case " ":
		m.session.ToggleStep(m.cursorY, m.cursorX)
	case "enter":
		if m.session.Playing() {
			m.session.Stop()
			m.status = "stopped"
			break
		}
		// The keypress is the activation gesture.
		if !m.session.Activated() {
			if err := m.session.Activate(); err != nil {
				m.status = "audio unavailable: " + err.Error()
				break
			}
		}
		if err := m.session.Start(); err != nil {
			m.status = err.Error()
			break
		}
		m.status = "playing"
	case "g":
		m.genreIdx = (m.genreIdx + 1) % len(genres)
		m.session.SetPattern(song.SeedPattern(genres[m.genreIdx], 1))
		m.status = "seeded " + genres[m.genreIdx]
	case "+", "=":
		m.session.SetTempo(m.session.Tempo() + 5)
	case "-", "_":
		m.session.SetTempo(m.session.Tempo() - 5)
	case "1", "2", "3", "4", "5":
		role := []groovebox.Role{
			groovebox.RoleMaster, groovebox.RoleBeat, groovebox.RoleMelody,
			groovebox.RoleHarmony, groovebox.RoleCombined,
		}[int(msg.String()[0]-'1')]
		st := m.session.Stage(role)
		if st.Muted() {
			st.Unmute()
		} else {
			st.Mute()
		}
	case "w":
		if m.projectPath == "" {
			m.projectPath = "groovebox.yaml"
		}
		if err := m.session.SaveProject(m.projectPath, "session"); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.status = "saved " + m.projectPath
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("groovebox") + "\n")
	b.WriteString(fmt.Sprintf("tempo %.0f bpm   %s\n\n", m.session.Tempo(), playState(m.session)))

	p := m.session.Pattern()
	if p == nil {
		return b.String() + "no pattern\n"
	}
	cells := projector.StepGrid(p, m.activeStep, 1, 1, 0)
	steps := p.Steps()
	for track := 0; track < song.DrumCount; track++ {
		label := labelStyle
		if m.session.Stage(groovebox.RoleBeat).Muted() {
			label = mutedStyle
		}
		b.WriteString(label.Render(song.DrumNames[track]))
		for step := 0; step < steps; step++ {
			cell := cells[track*steps+step]
			glyph := " · "
			if p.Velocity(track, step) > 0 {
				glyph = " ● "
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(cell.Color))
			if track == m.cursorY && step == m.cursorX {
				style = style.Inherit(cursorStyle)
			}
			b.WriteString(style.Render(glyph))
		}
		b.WriteString("\n")
	}

	if h := m.session.Harmony(); h != nil {
		b.WriteString("\n" + labelStyle.Render("chords"))
		lane := projector.ChordLane(h, activeBar(m.session, h), 1, 1)
		for i, r := range lane {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color)).Bold(true)
			b.WriteString(style.Render(fmt.Sprintf(" %-4s", h.Chords[i])))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	b.WriteString(helpStyle.Render("move: hjkl/arrows | space: toggle | enter: play/stop | g: genre | +/-: tempo"))
	b.WriteString("\n" + helpStyle.Render("1-5: mute master/beat/melody/harmony/combined | w: save | q: quit"))
	return b.String()
}

func playState(s *groovebox.Session) string {
	if s.Playing() {
		return "playing"
	}
	return "stopped"
}

// activeBar maps the transport position to the sounding chord index.
func activeBar(s *groovebox.Session, h *song.Harmony) int {
	if !s.Playing() || len(h.Chords) == 0 {
		return -1
	}
	bar := int(s.Beat() / song.BeatsPerBar)
	return bar % len(h.Chords)
}

func main() {
	cfg := config.Load()
	var (
		sampleRate  = flag.Int("sample-rate", cfg.SampleRate, "output sample rate")
		projectPath = flag.String("project", cfg.ProjectPath, "project file to load and save")
	)
	flag.Parse()

	session, err := groovebox.NewSession(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	prog := tea.NewProgram(initialModel(session, *projectPath), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		log.Fatal(err)
	}
}
