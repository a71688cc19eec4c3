// Package tray provides a system tray menu for pausing and quitting the
// controller and showing what the hands are doing.
package tray

import (
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"
)

const noHands = "Hands: none"

// Tray is the status icon. Callbacks must be registered before Run.
type Tray struct {
	destination string
	enabled     atomic.Bool

	onToggle func(enabled bool)
	onQuit   func()

	// quit ends the systray event loop; replaced in tests.
	quit     func()
	quitOnce sync.Once

	mu   sync.Mutex
	menu *menu
}

// menu holds the items that change after startup.
type menu struct {
	toggle  *systray.MenuItem
	gesture *systray.MenuItem
	exit    *systray.MenuItem
}

// New returns a tray for frames sent to destination. Sending starts enabled.
func New(destination string) *Tray {
	t := &Tray{
		destination: destination,
		quit:        systray.Quit,
	}
	t.enabled.Store(true)
	return t
}

// OnToggle registers fn to be told when sending is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) { t.onToggle = fn }

// OnQuit registers fn to be called when Quit is picked from the menu.
func (t *Tray) OnQuit(fn func()) { t.onQuit = fn }

// Run blocks in the systray event loop. It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.build, func() {})
}

// Quit stops the event loop. Safe to call more than once.
func (t *Tray) Quit() {
	t.quitOnce.Do(t.quit)
}

func (t *Tray) IsEnabled() bool { return t.enabled.Load() }

// SetLastGesture shows name on the status line. It is a no-op until the menu
// exists.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.menu == nil {
		return
	}
	if name == "" {
		t.menu.gesture.SetTitle(noHands)
		return
	}
	t.menu.gesture.SetTitle("Hands: " + name)
}

func (t *Tray) build() {
	systray.SetTitle("handctl")
	systray.SetTooltip("Hand control to " + t.destination)

	m := &menu{}
	m.toggle = systray.AddMenuItem(toggleTitle(t.IsEnabled()), "Pause or resume sending")
	systray.AddSeparator()
	m.gesture = systray.AddMenuItem(noHands, "Current gestures")
	m.gesture.Disable()
	systray.AddMenuItem("UDP "+t.destination, "Where control frames are sent").Disable()
	systray.AddSeparator()
	m.exit = systray.AddMenuItem("Quit", "Quit handctl")

	t.mu.Lock()
	t.menu = m
	t.mu.Unlock()

	go t.loop(m)
}

func (t *Tray) loop(m *menu) {
	for {
		select {
		case <-m.toggle.ClickedCh:
			enabled := t.handleToggle()
			m.toggle.SetTitle(toggleTitle(enabled))
		case <-m.exit.ClickedCh:
			t.handleQuit()
			return
		}
	}
}

// handleToggle flips between sending and paused and returns the new setting.
func (t *Tray) handleToggle() bool {
	enabled := !t.enabled.Load()
	t.enabled.Store(enabled)
	if t.onToggle != nil {
		t.onToggle(enabled)
	}
	return enabled
}

func (t *Tray) handleQuit() {
	if t.onQuit != nil {
		t.onQuit()
	}
	t.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Sending"
	}
	return "○ Paused"
}
