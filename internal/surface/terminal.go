package surface

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/picker"
)

// Terminal renders bound views as side-by-side panes and hosts a modal
// selection list for the picker. It implements Selection; its panes
// implement Presentation.
type Terminal struct {
	screen tcell.Screen

	mu      sync.Mutex
	panes   []*Pane
	modal   *modal
	onQuit  func()
	started bool
	stopped bool

	wg sync.WaitGroup
}

// modal is the active selection overlay, nil when closed.
type modal struct {
	items    []entity.Entity
	label    picker.LabelFunc
	report   func(entity.Entity)
	query    []rune
	matches  []picker.Match
	selected int
}

// New creates a terminal surface on a real screen.
func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen creates a terminal surface on the given screen. Tests use
// a tcell simulation screen here.
func NewWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Start initializes the screen and begins handling input.
func (t *Terminal) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.started = true

	t.wg.Add(1)
	go t.eventLoop()
	return nil
}

// Stop tears down the screen and fires every pane's close handlers.
func (t *Terminal) Stop() {
	t.mu.Lock()
	if !t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	panes := append([]*Pane{}, t.panes...)
	t.mu.Unlock()

	t.screen.Fini()
	t.wg.Wait()

	for _, p := range panes {
		p.fireClosed()
	}
}

// OnQuit registers the handler fired when the user quits (q or Ctrl-C).
func (t *Terminal) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Pane adds a titled pane and returns its presentation handle.
func (t *Terminal) Pane(title string) *Pane {
	p := &Pane{term: t, title: title}

	t.mu.Lock()
	t.panes = append(t.panes, p)
	t.mu.Unlock()

	t.redraw()
	return p
}

// Present implements Selection: it opens the modal list over the panes.
// With no candidates it reports nil immediately.
func (t *Terminal) Present(items []entity.Entity, label picker.LabelFunc, report func(entity.Entity)) {
	if len(items) == 0 {
		report(nil)
		return
	}

	t.mu.Lock()
	t.modal = &modal{
		items:   items,
		label:   label,
		report:  report,
		matches: picker.Filter(items, label, ""),
	}
	t.mu.Unlock()

	t.redraw()
}

func (t *Terminal) eventLoop() {
	defer t.wg.Done()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
			t.redraw()
		case *tcell.EventKey:
			t.handleKey(ev)
		}
	}
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	t.mu.Lock()
	m := t.modal
	quit := t.onQuit
	t.mu.Unlock()

	if m != nil {
		t.handleModalKey(m, ev)
		return
	}

	if ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
		if quit != nil {
			quit()
		}
	}
}

func (t *Terminal) handleModalKey(m *modal, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.closeModal(m, nil)
		return
	case tcell.KeyEnter:
		var chosen entity.Entity
		if m.selected < len(m.matches) {
			chosen = m.matches[m.selected].Entity
		}
		t.closeModal(m, chosen)
		return
	case tcell.KeyUp:
		t.mu.Lock()
		if m.selected > 0 {
			m.selected--
		}
		t.mu.Unlock()
	case tcell.KeyDown:
		t.mu.Lock()
		if m.selected < len(m.matches)-1 {
			m.selected++
		}
		t.mu.Unlock()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		t.mu.Lock()
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.matches = picker.Filter(m.items, m.label, string(m.query))
			m.selected = 0
		}
		t.mu.Unlock()
	case tcell.KeyRune:
		t.mu.Lock()
		m.query = append(m.query, ev.Rune())
		m.matches = picker.Filter(m.items, m.label, string(m.query))
		m.selected = 0
		t.mu.Unlock()
	}

	t.redraw()
}

func (t *Terminal) closeModal(m *modal, chosen entity.Entity) {
	t.mu.Lock()
	t.modal = nil
	t.mu.Unlock()

	m.report(chosen)
	t.redraw()
}

// redraw repaints the whole screen.
func (t *Terminal) redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started || t.stopped {
		return
	}

	t.screen.Clear()
	width, height := t.screen.Size()

	if n := len(t.panes); n > 0 && width > 0 {
		paneWidth := width / n
		for i, p := range t.panes {
			p.draw(t.screen, i*paneWidth, paneWidth, height)
		}
	}

	if t.modal != nil {
		t.drawModal(width, height)
	}

	t.screen.Show()
}

func (t *Terminal) drawModal(width, height int) {
	m := t.modal

	boxWidth := width * 3 / 4
	if boxWidth < 20 {
		boxWidth = width
	}
	boxHeight := len(m.matches) + 2
	if limit := height * 3 / 4; boxHeight > limit {
		boxHeight = limit
	}
	left := (width - boxWidth) / 2
	top := (height - boxHeight) / 2

	style := tcell.StyleDefault.Reverse(true)
	drawString(t.screen, left, top, boxWidth, style, "> "+string(m.query))

	listStyle := tcell.StyleDefault
	for i, match := range m.matches {
		if i+1 >= boxHeight {
			break
		}
		s := listStyle
		prefix := "  "
		if i == m.selected {
			s = s.Bold(true)
			prefix = "* "
		}
		drawString(t.screen, left, top+1+i, boxWidth, s, prefix+match.Label)
	}
}

// drawString writes text at (x, y), truncated to maxWidth cells.
func drawString(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

// Pane is one titled column of the terminal surface.
type Pane struct {
	term *Terminal

	mu       sync.Mutex
	title    string
	lines    []string
	errMsg   string
	errored  bool
	onClosed []func()
	closed   bool
}

// SetContent replaces the pane content.
func (p *Pane) SetContent(text string) {
	p.mu.Lock()
	p.lines = splitLines(text)
	p.errored = false
	p.mu.Unlock()

	p.term.redraw()
}

// SetErrorState shows an error in place of the pane content.
func (p *Pane) SetErrorState(message string) {
	p.mu.Lock()
	p.errMsg = message
	p.errored = true
	p.mu.Unlock()

	p.term.redraw()
}

// OnClosed registers a close handler, fired when the terminal stops.
func (p *Pane) OnClosed(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClosed = append(p.onClosed, fn)
}

func (p *Pane) fireClosed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	handlers := append([]func(){}, p.onClosed...)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// draw paints the pane into its column. Caller holds the terminal lock.
func (p *Pane) draw(screen tcell.Screen, x, width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	titleStyle := tcell.StyleDefault.Reverse(true)
	drawString(screen, x, 0, width, titleStyle, " "+p.title)

	if p.errored {
		errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
		drawString(screen, x, 1, width, errStyle, "! "+p.errMsg)
		return
	}

	for i, line := range p.lines {
		if i+1 >= height {
			break
		}
		drawString(screen, x, i+1, width, tcell.StyleDefault, line)
	}
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
