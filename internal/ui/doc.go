// Package ui renders the plain (non full-screen) terminal output of the
// trainwatch commands: status symbols, spinners, progress bars, sparklines
// and the run summary printed by 'trainwatch generate'.
//
// # Color Scheme
//
// Colors are ANSI codes so they follow the user's terminal theme:
//
//	ColorSuccess   (green)  - Successful operations
//	ColorError     (red)    - Failures and errors
//	ColorWarning   (yellow) - Warnings and skipped items
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//
// Use DisableColors() to switch to monochrome output (for --no-color).
//
// # Spinner Usage
//
//	s := ui.NewSpinner("Checking relay")
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail() or s.Skip()
//
// The full-screen dashboard lives in the dashboard package; nothing here
// takes over the terminal.
package ui
