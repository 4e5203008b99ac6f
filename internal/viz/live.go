package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flightcore/internal/control"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/sim"
)

const (
	historyCapacity = 400
	frameRate       = 30
)

var (
	axisNames = [3]string{"roll", "pitch", "yaw"}
	paramKeys = []string{"kp", "ki", "kd", "integral_limit", "output_limit"}
)

type TickMsg time.Time

// Model is a live view of the closed loop. Each frame advances the simulation
// by StepsPerFrame control ticks.
type Model struct {
	ctx      context.Context
	sim      *sim.Simulator
	plant    *sim.Plant
	profile  sim.Profile
	attitude imu.AttitudeReader

	t, dt         float64
	stepsPerFrame int
	running       bool
	enabled       bool
	axis          int
	param         int

	last     sim.Sample
	att      imu.Attitude
	measured [3][]float64
	setpoint [3][]float64
	output   [3][]float64
	err      error
}

func NewModel(ctx context.Context, s *sim.Simulator, plant *sim.Plant, profile sim.Profile, dt float64) Model {
	steps := int(1/(dt*frameRate) + 0.5)
	if steps < 1 {
		steps = 1
	}
	return Model{
		ctx:           ctx,
		sim:           s,
		plant:         plant,
		profile:       profile,
		dt:            dt,
		stepsPerFrame: steps,
		running:       true,
		enabled:       true,
	}
}

// WithAttitude adds an attitude readout to the view.
func (m Model) WithAttitude(r imu.AttitudeReader) Model {
	m.attitude = r
	return m
}

func (m Model) Time() float64     { return m.t }
func (m Model) Err() error        { return m.err }
func (m Model) Last() sim.Sample  { return m.last }
func (m Model) SelectedAxis() int { return m.axis }

func (m Model) SelectedParam() string { return paramKeys[m.param] }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "1", "2", "3":
			m.axis = int(msg.String()[0] - '1')
		case "tab":
			m.param = (m.param + 1) % len(paramKeys)
		case "up", "k":
			m.adjustParam(1.1)
		case "down", "j":
			m.adjustParam(0.9)
		case "e":
			m.enabled = !m.enabled
			m.sim.Axes().SetEnabled(m.enabled)
		case "r":
			m.sim.Axes().IntegralReset()
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) pid() *control.PID {
	pid, _ := m.sim.Axes().Axis(axisNames[m.axis])
	return pid
}

func (m *Model) adjustParam(factor float64) {
	pid := m.pid()
	key := paramKeys[m.param]
	val := pid.GetParams()[key]
	if val == 0 {
		// lets a zeroed gain be brought back with the up key
		val = 1e-6
	}
	_ = pid.SetParam(key, val*factor)
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		sample, err := m.sim.Tick(m.ctx, m.plant, m.profile, m.t, m.dt)
		if err != nil {
			m.err = err
			return
		}
		m.record(sample)
		m.t += m.dt
	}

	if m.attitude != nil {
		if att, err := m.attitude.ReadAttitude(m.ctx); err == nil {
			m.att = att
		}
	}
}

func (m *Model) record(s sim.Sample) {
	m.last = s
	meas, sp, out := s.Measured.Slice(), s.Setpoint.Slice(), s.Output.Slice()
	for i := range axisNames {
		m.measured[i] = appendCapped(m.measured[i], meas[i])
		m.setpoint[i] = appendCapped(m.setpoint[i], sp[i])
		m.output[i] = appendCapped(m.output[i], out[i])
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[len(s)-historyCapacity:]
	}
	return s
}

func (m Model) View() string {
	var s strings.Builder

	status := Good.Render("RUNNING")
	switch {
	case m.err != nil:
		status = Bad.Render("STOPPED: " + m.err.Error())
	case !m.running:
		status = Warn.Render("PAUSED")
	}
	if !m.enabled {
		status += "  " + Warn.Render("PASSTHROUGH")
	}

	s.WriteString(Title.Render("FLIGHTCORE "+strings.ToUpper(axisNames[m.axis])) + "  " + status + "\n\n")

	if len(m.measured[m.axis]) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.setpoint[m.axis], m.measured[m.axis]},
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
			asciigraph.Caption("setpoint / measured rate"),
		)
		s.WriteString(chart + "\n\n")
	}

	s.WriteString(Label.Render("time") + Value.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	for i, name := range axisNames {
		meas := m.last.Measured.Slice()[i]
		sp := m.last.Setpoint.Slice()[i]
		out := m.last.Output.Slice()[i]
		line := fmt.Sprintf("%7.1f -> %7.1f  u=%7.1f  ", meas, sp, out)
		s.WriteString(Label.Render(name) + Value.Render(line) + Sparkline(m.output[i], 30) + "\n")
	}
	if m.attitude != nil {
		s.WriteString(Label.Render("attitude") + Value.Render(fmt.Sprintf("r=%.0f p=%.0f y=%.0f", m.att.Roll, m.att.Pitch, m.att.Yaw)) + "\n")
	}

	pid := m.pid()
	params := pid.GetParams()
	var p strings.Builder
	for i, k := range paramKeys {
		line := fmt.Sprintf("%-15s %g", k, params[k])
		if i == m.param {
			p.WriteString(Selected.Render("> "+line) + "\n")
		} else {
			p.WriteString("  " + line + "\n")
		}
	}
	p.WriteString(fmt.Sprintf("  %-15s %.2f", "integral", pid.Integral()))

	s.WriteString("\n" + Panel.Render(p.String()) + "\n")
	s.WriteString(Hint.Render("space:pause 1/2/3:axis tab:param up/down:tune e:enable r:reset-i q:quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}
