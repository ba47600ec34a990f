package dashboard

import tea "github.com/charmbracelet/bubbletea"

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewGrid ViewMode = iota
	ViewDetail
)

// Key bindings as constants for consistency.
const (
	KeyQuit         = "q"
	KeyQuitAlt      = "ctrl+c"
	KeyNext         = "tab"
	KeyPrev         = "shift+tab"
	KeySelectUp     = "up"
	KeySelectUpK    = "k"
	KeySelectDown   = "down"
	KeySelectDownJ  = "j"
	KeySelectLeft   = "left"
	KeySelectLeftH  = "h"
	KeySelectRight  = "right"
	KeySelectRightL = "l"
	KeySelectFirst  = "home"
	KeySelectLast   = "end"
	KeyExpand       = "enter"
	KeyCollapse     = "esc"
	KeyToggleScale  = "s"
	KeyClear        = "c"
	KeyToggleHelp   = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise. Unhandled keys in the
// detail view scroll its viewport.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		_ = m.Close()
		return true, tea.Quit

	case KeyNext:
		m.selectIndex((m.selected + 1) % len(m.kinds))
		return true, nil

	case KeyPrev:
		m.selectIndex((m.selected + len(m.kinds) - 1) % len(m.kinds))
		return true, nil

	case KeyToggleScale:
		k := m.SelectedKind()
		m.scales[k] = m.scales[k].Toggle()
		m.refreshDetail()
		return true, nil

	case KeyClear:
		m.board.Reset()
		m.refreshDetail()
		return true, nil

	case KeyCollapse:
		m.viewMode = ViewGrid
		return true, nil
	}

	if m.viewMode == ViewDetail {
		return false, nil
	}

	cols := m.cardsPerRow()
	switch key {
	case KeySelectLeft, KeySelectLeftH:
		m.selectIndex(m.selected - 1)
	case KeySelectRight, KeySelectRightL:
		m.selectIndex(m.selected + 1)
	case KeySelectUp, KeySelectUpK:
		m.selectIndex(m.selected - cols)
	case KeySelectDown, KeySelectDownJ:
		m.selectIndex(m.selected + cols)
	case KeySelectFirst:
		m.selectIndex(0)
	case KeySelectLast:
		m.selectIndex(len(m.kinds) - 1)
	case KeyExpand:
		m.viewMode = ViewDetail
		m.refreshDetail()
		m.detailViewport.GotoTop()
	default:
		return false, nil
	}
	return true, nil
}

// selectIndex moves the selection, ignoring moves off the grid.
func (m *Model) selectIndex(i int) {
	if i < 0 || i >= len(m.kinds) {
		return
	}
	m.selected = i
	m.refreshDetail()
}
