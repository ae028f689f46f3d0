package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/VarunWeb6/ALEX-AI/internal/channel"
	"github.com/VarunWeb6/ALEX-AI/internal/render"
	"github.com/VarunWeb6/ALEX-AI/internal/timeline"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("249")).
			Bold(true)

	selfStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)

	pickerSelected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

func (r *Room) resize(width, height int) {
	r.width = width
	r.height = height
	r.renderer = render.New(r.transcriptWidth())

	vpHeight := height - 4 // header, status, composer
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !r.ready {
		r.viewport = viewport.New(r.transcriptWidth(), vpHeight)
		r.ready = true
	} else {
		r.viewport.Width = r.transcriptWidth()
		r.viewport.Height = vpHeight
	}
	r.input.Width = width - 4
	r.refreshTranscript()
}

func (r *Room) transcriptWidth() int {
	w := r.width
	if r.sidebarOpen {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

const sidebarWidth = 28

// refreshTranscript rebuilds the viewport content from the timeline and
// pins the view to the newest message.
func (r *Room) refreshTranscript() {
	if !r.ready {
		return
	}
	var b strings.Builder
	for i, rec := range r.tl.Records() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.formatRecord(rec))
	}
	r.viewport.SetContent(b.String())
	r.viewport.GotoBottom()
}

func (r *Room) formatRecord(rec timeline.Record) string {
	label := rec.Sender.User.Email
	style := senderStyle
	switch {
	case rec.Sender.Automated():
		label = "alex"
		style = aiStyle
	case rec.Side == timeline.SideSelf:
		label = "you"
		style = selfStyle
	}
	return style.Render(label) + "\n" + r.renderer.Record(rec)
}

func (r *Room) View() string {
	if !r.ready {
		return "loading..."
	}
	if r.pickerOpen {
		return r.pickerView()
	}

	header := headerStyle.Render(fmt.Sprintf("%s — %s", r.project.Name, r.connLabel()))

	main := r.viewport.View()
	if r.sidebarOpen {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, r.sidebarView())
	}

	status := r.status
	if status == "" {
		status = "enter: send · ctrl+a: add collaborators · ctrl+g: roster · esc: leave"
	}

	return strings.Join([]string{
		header,
		main,
		statusStyle.Render(status),
		"> " + r.input.View(),
	}, "\n")
}

func (r *Room) connLabel() string {
	switch r.connState {
	case channel.StateConnected:
		return "online"
	case channel.StateConnecting:
		return "reconnecting..."
	case channel.StateDisconnected:
		return "offline"
	default:
		return r.connState
	}
}

func (r *Room) sidebarView() string {
	var b strings.Builder
	b.WriteString(senderStyle.Render("Collaborators"))
	b.WriteString("\n")
	if p := r.sync.Project(); p != nil {
		for _, u := range p.Users {
			b.WriteString("\n" + u.Email)
		}
	}
	return panelStyle.Width(sidebarWidth - 2).Render(b.String())
}

func (r *Room) pickerView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select users"))
	b.WriteString("\n\n")

	users := r.sync.Directory()
	if len(users) == 0 {
		b.WriteString(statusStyle.Render("directory empty or still loading"))
	}
	for i, u := range users {
		cursor := "  "
		if i == r.pickerCursor {
			cursor = "> "
		}
		mark := "[ ]"
		if r.sync.IsSelected(u.ID) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, u.Email)
		if r.sync.IsSelected(u.ID) {
			line = pickerSelected.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	status := r.status
	if status == "" {
		status = "space: select · enter: add · esc: cancel"
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}
