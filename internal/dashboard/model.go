package dashboard

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/trainwatch/internal/ingest"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/metric"
	"github.com/rileyhilliard/trainwatch/internal/series"
	"github.com/rileyhilliard/trainwatch/internal/stream"
)

// Feed supplies frames and connection state. *stream.Subscriber satisfies it.
type Feed interface {
	Frames() <-chan stream.Frame
	Statuses() <-chan stream.StatusUpdate
	Close() error
}

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutSingle stacks cards in one column (< 80 columns)
	LayoutSingle LayoutMode = iota
	// LayoutDouble puts two cards per row (80-160 columns)
	LayoutDouble
	// LayoutTriple puts three cards per row (160+ columns)
	LayoutTriple
)

// Width breakpoints for layout modes
const (
	BreakpointDouble = 80
	BreakpointTriple = 160
)

const (
	// spinnerInterval is the animation frame rate for status indicators
	spinnerInterval = 150 * time.Millisecond

	// maxFrameBatch bounds how many queued frames one message carries
	maxFrameBatch = 256
)

// Options configures a dashboard Model.
type Options struct {
	// URL is shown in the header.
	URL string

	// MaxPoints caps every series. Zero keeps everything.
	MaxPoints int

	Log logger.Logger
}

// Model is the Bubble Tea model for the training dashboard.
type Model struct {
	feed   Feed
	url    string
	board  *series.Board
	ingest *ingest.Ingestor

	kinds    []metric.Kind
	scales   map[metric.Kind]Scale
	selected int

	status    stream.Status
	statusErr error
	attempt   int
	lastFrame time.Time
	now       func() time.Time

	width    int
	height   int
	viewMode ViewMode
	showHelp bool
	quitting bool

	spinnerFrame int

	detailViewport viewport.Model
	viewportReady  bool

	// Shared by every copy of the model so the feed is closed once.
	stop *sync.Once
	done chan struct{}
}

// framesMsg carries frames queued on the feed, oldest first.
type framesMsg []stream.Frame

// statusMsg carries a connection state change.
type statusMsg stream.StatusUpdate

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

// NewModel creates a dashboard reading from feed. The model owns the feed
// and closes it when the user quits or Close is called.
func NewModel(feed Feed, opts Options) Model {
	board := series.NewBoard(opts.MaxPoints)

	scales := make(map[metric.Kind]Scale)
	for _, k := range metric.Kinds() {
		scales[k] = ScaleLinear
	}
	// Perplexity spans orders of magnitude early in a run.
	scales[metric.KindPerplexity] = ScaleLog

	return Model{
		feed:   feed,
		url:    opts.URL,
		board:  board,
		ingest: ingest.New(board, opts.Log),
		kinds:  metric.Kinds(),
		scales: scales,
		status: stream.StatusConnecting,
		now:    time.Now,
		stop:   &sync.Once{},
		done:   make(chan struct{}),
	}
}

// Init starts listening on the feed and the spinner animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForFrames(),
		m.waitForStatus(),
		m.spinnerTickCmd(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail && m.viewportReady {
			var vpCmd tea.Cmd
			m.detailViewport, vpCmd = m.detailViewport.Update(msg)
			return m, vpCmd
		}

	case tea.MouseMsg:
		if m.viewMode == ViewDetail && m.viewportReady {
			var vpCmd tea.Cmd
			m.detailViewport, vpCmd = m.detailViewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve space for header and footer
		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		m.refreshDetail()

	case framesMsg:
		for _, f := range msg {
			m.ingest.Handle(f.Data)
			m.lastFrame = f.ReceivedAt
		}
		m.refreshDetail()
		return m, m.waitForFrames()

	case statusMsg:
		m.status = msg.Status
		m.statusErr = msg.Err
		m.attempt = msg.Attempt
		return m, m.waitForStatus()

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

// Close stops listening and closes the feed. Safe to call more than once,
// and after the user has quit.
func (m Model) Close() error {
	var err error
	m.stop.Do(func() {
		close(m.done)
		err = m.feed.Close()
	})
	return err
}

// SelectedKind returns the kind of the highlighted card.
func (m Model) SelectedKind() metric.Kind {
	return m.kinds[m.selected]
}

// Series returns the current series for kind.
func (m Model) Series(kind metric.Kind) series.Series {
	return m.board.Series(kind)
}

// Stats returns the ingest counters.
func (m Model) Stats() ingest.Stats {
	return m.ingest.Stats()
}

// Status returns the last reported connection state.
func (m Model) Status() stream.Status {
	return m.status
}

// refreshDetail re-renders the detail viewport when it is showing.
func (m *Model) refreshDetail() {
	if m.viewMode == ViewDetail && m.viewportReady {
		m.detailViewport.SetContent(m.renderDetailContent())
	}
}

// waitForFrames blocks for the next frame, then takes whatever else is
// already queued so a burst costs one render.
func (m Model) waitForFrames() tea.Cmd {
	feed, done := m.feed, m.done
	return func() tea.Msg {
		var batch framesMsg
		select {
		case f := <-feed.Frames():
			batch = append(batch, f)
		case <-done:
			return nil
		}
		for len(batch) < maxFrameBatch {
			select {
			case f := <-feed.Frames():
				batch = append(batch, f)
			default:
				return batch
			}
		}
		return batch
	}
}

// waitForStatus blocks for the next connection state change.
func (m Model) waitForStatus() tea.Cmd {
	feed, done := m.feed, m.done
	return func() tea.Msg {
		select {
		case u := <-feed.Statuses():
			return statusMsg(u)
		case <-done:
			return nil
		}
	}
}

// spinnerTickCmd returns a command that sends a spinner tick for animation.
func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
