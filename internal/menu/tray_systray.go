//go:build cgo || windows

package menu

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/example/pwabridge/internal/compat"
)

type systrayController struct {
	mu      sync.Mutex
	entries []trayEntry
	install *systray.MenuItem
}

type trayEntry struct {
	item   *systray.MenuItem
	cancel context.CancelFunc
}

func newTrayController() trayController {
	return &systrayController{}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan UpdatePayload, actions Actions) error {
	done := make(chan struct{})

	go systray.Run(func() {
		systray.SetTitle("PWAs")
		systray.SetTooltip("Installed web apps")

		c.install = systray.AddMenuItem("Install connector", "Open the connector download page")
		c.install.Hide()
		refresh := systray.AddMenuItem("Refresh", "Reload the site list")
		quit := systray.AddMenuItem("Quit", "Exit the launcher")
		systray.AddSeparator()

		go func() {
			for {
				select {
				case <-ctx.Done():
					systray.Quit()
					return
				case <-quit.ClickedCh:
					systray.Quit()
					return
				case <-refresh.ClickedCh:
					actions.Refresh()
				case <-c.install.ClickedCh:
					actions.Install()
				}
			}
		}()

		go c.listen(ctx, updates, actions)
	}, func() {
		c.shutdown()
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *systrayController) listen(ctx context.Context, updates <-chan UpdatePayload, actions Actions) {
	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case state, ok := <-updates:
			if !ok {
				systray.Quit()
				return
			}
			c.render(ctx, state, actions)
		}
	}
}

func (c *systrayController) render(ctx context.Context, state UpdatePayload, actions Actions) {
	switch state.Status {
	case compat.StatusInstall:
		c.install.SetTitle("Install connector")
		c.install.Show()
	case compat.StatusUpdateRequired, compat.StatusUpdateOptional:
		c.install.SetTitle("Update connector")
		c.install.Show()
	default:
		c.install.Hide()
	}

	c.mu.Lock()
	old := c.entries
	c.entries = nil
	c.mu.Unlock()

	for _, entry := range old {
		entry.cancel()
		entry.item.Hide()
	}

	entries := make([]trayEntry, 0, len(state.Entries))
	for _, site := range state.Entries {
		mi := systray.AddMenuItem(site.Label, site.Tooltip)
		if len(site.Icon) > 0 {
			mi.SetIcon(site.Icon)
		}
		ctxItem, cancel := context.WithCancel(ctx)
		go func(ch <-chan struct{}, ulid string) {
			for {
				select {
				case <-ctxItem.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					actions.Launch(ulid)
				}
			}
		}(mi.ClickedCh, site.ULID)
		entries = append(entries, trayEntry{item: mi, cancel: cancel})
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

func (c *systrayController) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		entry.cancel()
	}
	c.entries = nil
}
