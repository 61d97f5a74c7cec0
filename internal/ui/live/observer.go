package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"stepgrade/internal/batch"
)

var _ batch.Observer = (*Controller)(nil)

// Controller runs the live UI and implements batch.Observer.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, controller.err = program.Run()
		close(controller.done)
	}()
	return controller
}

// Close signals the UI to stop.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.events)
	})
}

// Wait blocks until the UI has exited and returns its error, if any.
func (c *Controller) Wait() error {
	if c == nil {
		return nil
	}
	<-c.done
	return c.err
}

// OnRunStart forwards run start events to the UI.
func (c *Controller) OnRunStart(runID, command string, total int) {
	c.send(Event{Kind: EventRunStart, RunID: runID, Command: command, Total: total})
}

// OnItemEvent forwards item status updates to the UI.
func (c *Controller) OnItemEvent(event batch.ItemEvent) {
	c.send(Event{Kind: EventItem, Item: event})
}

// OnRunEnd forwards run completion to the UI and closes it.
func (c *Controller) OnRunEnd(summary batch.Summary) {
	c.send(Event{Kind: EventRunEnd, Summary: summary})
	c.Close()
}

// send enqueues an event; step updates are dropped when the UI falls behind.
func (c *Controller) send(event Event) {
	if c == nil {
		return
	}
	if event.Kind == EventItem && event.Item.Type == batch.ItemStep {
		select {
		case c.events <- event:
		default:
		}
		return
	}
	select {
	case c.events <- event:
	case <-c.done:
	}
}
