// Package ui is the project room: a terminal chat view bound to one open
// channel handle, with a collaborator side panel and an add-collaborator
// picker.
package ui

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
	"github.com/VarunWeb6/ALEX-AI/internal/auth"
	"github.com/VarunWeb6/ALEX-AI/internal/channel"
	"github.com/VarunWeb6/ALEX-AI/internal/logger"
	"github.com/VarunWeb6/ALEX-AI/internal/render"
	"github.com/VarunWeb6/ALEX-AI/internal/roster"
	"github.com/VarunWeb6/ALEX-AI/internal/timeline"
)

const openTimeout = 15 * time.Second

// Messages bridged from the channel and the sync layer into the program.
type inboundMsg struct{ env channel.Envelope }

type connStateMsg struct {
	state string
	err   error
}

type sessionRevokedMsg struct{}

type rosterUpdatedMsg struct{ err error }

type addResultMsg struct{ err error }

// Room is the bubbletea model for one mounted project view. It exclusively
// owns the channel handle for its lifetime.
type Room struct {
	session  *auth.Session
	sync     *roster.Sync
	handle   *channel.Handle
	tl       *timeline.Timeline
	renderer *render.Renderer
	project  api.Project
	events   chan tea.Msg

	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int
	ready    bool

	sidebarOpen  bool
	pickerOpen   bool
	pickerCursor int

	connState string
	status    string
}

// Run mounts the project room. The session gate is evaluated before anything
// renders, the channel opens scoped to the project id, and teardown (handle
// close, sync reset) runs on every exit path.
func Run(sess *auth.Session, client *api.Client, manager *channel.Manager, project api.Project) error {
	if err := sess.Guard(); err != nil {
		return err
	}

	events := make(chan tea.Msg, 64)
	manager.OnStateChange = func(state string, err error) {
		select {
		case events <- connStateMsg{state: state, err: err}:
		default:
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	handle, err := manager.Open(ctx, project.ID)
	cancel()
	if err != nil {
		return err
	}
	defer handle.Close()

	handle.Subscribe(channel.EventProjectMessage, func(env channel.Envelope) {
		// Blocking keeps delivery order, but teardown must still win: after
		// Close nothing drains events, so dispatch would hang forever.
		select {
		case events <- inboundMsg{env: env}:
		case <-handle.Done():
		}
	})

	// Reactive gate: a logout elsewhere revokes this view immediately.
	sess.Watch(func() {
		if sess.Guard() != nil {
			select {
			case events <- sessionRevokedMsg{}:
			default:
			}
		}
	})

	sync := roster.New(client)
	sync.SetProject(&project)
	defer sync.Reset()

	room := &Room{
		session:   sess,
		sync:      sync,
		handle:    handle,
		tl:        timeline.New(),
		renderer:  render.New(80),
		project:   project,
		events:    events,
		input:     newComposer(),
		connState: channel.StateConnected,
	}

	p := tea.NewProgram(room, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newComposer() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Enter message..."
	ti.CharLimit = 4096
	ti.Focus()
	return ti
}

func (r *Room) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		r.waitForEvent(),
		r.refreshDirectory(),
		r.refreshRoster(),
	)
}

func (r *Room) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-r.events
	}
}

func (r *Room) refreshDirectory() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return rosterUpdatedMsg{err: r.sync.RefreshDirectory(ctx)}
	}
}

func (r *Room) refreshRoster() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return rosterUpdatedMsg{err: r.sync.RefreshRoster(ctx, r.project.ID)}
	}
}

func (r *Room) addCollaborators() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return addResultMsg{err: r.sync.AddCollaborators(ctx, r.project.ID)}
	}
}

func (r *Room) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.resize(msg.Width, msg.Height)
		return r, nil

	case sessionRevokedMsg:
		return r, tea.Quit

	case connStateMsg:
		r.connState = msg.state
		if msg.err != nil {
			logger.Warn("room: channel state", "state", msg.state, "err", msg.err)
		}
		if msg.state == channel.StateAuthFailed {
			return r, tea.Quit
		}
		return r, r.waitForEvent()

	case inboundMsg:
		r.ingest(msg.env)
		return r, r.waitForEvent()

	case rosterUpdatedMsg:
		if msg.err != nil {
			r.status = "sync failed: " + msg.err.Error()
		}
		return r, nil

	case addResultMsg:
		if msg.err != nil {
			// Picker stays open so the user can adjust and retry.
			r.status = "add collaborators failed: " + msg.err.Error()
			return r, nil
		}
		r.pickerOpen = false
		r.status = "collaborators added"
		return r, nil

	case tea.KeyMsg:
		return r.handleKey(msg)
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *Room) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if r.pickerOpen {
		return r.handlePickerKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return r, tea.Quit
	case "ctrl+g":
		r.sidebarOpen = !r.sidebarOpen
		return r, nil
	case "ctrl+a":
		r.pickerOpen = true
		r.pickerCursor = 0
		return r, nil
	case "enter":
		return r, r.send()
	case "pgup":
		r.viewport.HalfViewUp()
		return r, nil
	case "pgdown":
		r.viewport.HalfViewDown()
		return r, nil
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *Room) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	users := r.sync.Directory()
	switch msg.String() {
	case "esc", "ctrl+c":
		// Closing the picker discards the transient selection.
		r.pickerOpen = false
		r.sync.ClearSelection()
		return r, nil
	case "up", "k":
		if r.pickerCursor > 0 {
			r.pickerCursor--
		}
		return r, nil
	case "down", "j":
		if r.pickerCursor < len(users)-1 {
			r.pickerCursor++
		}
		return r, nil
	case " ":
		if r.pickerCursor < len(users) {
			r.sync.ToggleSelect(users[r.pickerCursor].ID)
		}
		return r, nil
	case "enter":
		return r, r.addCollaborators()
	}
	return r, nil
}

// send emits the composer body and optimistically appends it. The record and
// the wire message share one correlation id so the server echo deduplicates.
func (r *Room) send() tea.Cmd {
	body := r.input.Value()
	if body == "" {
		return nil
	}
	id := r.session.Identity()
	if id == nil {
		return tea.Quit
	}

	self := api.UserRef{ID: id.ID, Email: id.Email}
	msg := channel.ChatMessage{
		ID:      uuid.NewString(),
		Message: body,
		Sender:  self,
	}

	rec := timeline.NewRecord(msg.ID, timeline.Human(self), body, id.ID)
	r.tl.Append(rec)
	r.refreshTranscript()
	r.input.Reset()

	return func() tea.Msg {
		if err := r.handle.Send(channel.EventProjectMessage, msg); err != nil {
			logger.Error("room: send failed", "err", err)
		}
		return nil
	}
}

// ingest appends one inbound event to the timeline in delivery order.
func (r *Room) ingest(env channel.Envelope) {
	var msg channel.ChatMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		logger.Warn("room: bad project-message payload", "err", err)
		return
	}
	recID := msg.ID
	if recID == "" {
		recID = env.ID
	}

	selfID := ""
	if id := r.session.Identity(); id != nil {
		selfID = id.ID
	}
	sender := timeline.ResolveSender(msg.Sender)
	rec := timeline.NewRecord(recID, sender, msg.Message, selfID)
	if r.tl.Append(rec) {
		r.refreshTranscript()
	}
}
