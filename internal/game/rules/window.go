package rules

import (
	"fmt"
	"sync"
)

// WindowKind identifies a timing window within the ACTION phase.
type WindowKind string

const (
	// WindowOpen is an open action window: the priority player may take
	// actions and play Action-speed cards.
	WindowOpen WindowKind = "OPEN"
	// WindowClosed is a closed window: a chain exists and only
	// Reaction-speed abilities may be added.
	WindowClosed WindowKind = "CLOSED"
	// WindowShowdown is the sub-window opened by a combat declaration at a
	// battlefield.
	WindowShowdown WindowKind = "SHOWDOWN"
	// WindowCombat is the combat resolution sub-window nested under
	// SHOWDOWN.
	WindowCombat WindowKind = "COMBAT"
)

// Window is one entry of the window stack.
type Window struct {
	Kind WindowKind
	// BattlefieldID scopes SHOWDOWN and COMBAT windows.
	BattlefieldID string
	// Initiator is the player who opened the window.
	Initiator string
}

// WindowStack tracks the nested timing windows of the ACTION phase.
// The bottom entry is always an OPEN window while the phase lasts.
type WindowStack struct {
	mu      sync.Mutex
	windows []Window
}

// NewWindowStack creates a stack holding a single open window.
func NewWindowStack() *WindowStack {
	return &WindowStack{windows: []Window{{Kind: WindowOpen}}}
}

// Current returns the innermost window.
func (ws *WindowStack) Current() Window {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if len(ws.windows) == 0 {
		return Window{Kind: WindowOpen}
	}
	return ws.windows[len(ws.windows)-1]
}

// Push opens a nested window.
func (ws *WindowStack) Push(w Window) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w.Kind == WindowCombat {
		if len(ws.windows) == 0 || ws.windows[len(ws.windows)-1].Kind != WindowShowdown {
			return fmt.Errorf("COMBAT window requires an enclosing SHOWDOWN")
		}
	}
	ws.windows = append(ws.windows, w)
	return nil
}

// Pop closes the innermost window. The bottom OPEN window is never popped.
func (ws *WindowStack) Pop() (Window, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if len(ws.windows) <= 1 {
		return Window{}, fmt.Errorf("cannot pop the base window")
	}
	idx := len(ws.windows) - 1
	w := ws.windows[idx]
	ws.windows = ws.windows[:idx]
	return w, nil
}

// Depth returns the number of windows on the stack.
func (ws *WindowStack) Depth() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.windows)
}

// List returns a copy of the stack, outermost first.
func (ws *WindowStack) List() []Window {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	cpy := make([]Window, len(ws.windows))
	copy(cpy, ws.windows)
	return cpy
}

// InShowdown reports whether a SHOWDOWN window is anywhere on the stack.
func (ws *WindowStack) InShowdown() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, w := range ws.windows {
		if w.Kind == WindowShowdown {
			return true
		}
	}
	return false
}

// Reset drops everything back to a single open window.
func (ws *WindowStack) Reset() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.windows = []Window{{Kind: WindowOpen}}
}
