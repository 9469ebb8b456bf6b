// Package menu runs the system tray launcher that lists installed sites and
// starts them through the native connector.
package menu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/pwabridge/internal/compat"
	"github.com/example/pwabridge/internal/icons"
	"github.com/example/pwabridge/internal/logging"
	"github.com/example/pwabridge/internal/manifest"
	"github.com/example/pwabridge/internal/native"
	"github.com/example/pwabridge/internal/protocol"
)

const (
	defaultRefreshInterval = 30 * time.Second
	menuIconSize           = 32
	maxIconBytes           = 1 << 20
)

// SiteSource lists and launches installed sites.
type SiteSource interface {
	Sites(ctx context.Context) ([]protocol.Site, error)
	LaunchSite(ctx context.Context, ulid string) error
}

// StatusChecker classifies the connector install state.
type StatusChecker interface {
	Check(ctx context.Context) (compat.Status, error)
}

// IconFetcher downloads icon bytes.
type IconFetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// Entry is one site in the tray menu.
type Entry struct {
	ULID    string
	Label   string
	Tooltip string
	IconURL string
	Icon    []byte `json:"-"`
}

// UpdatePayload is the tray state pushed to the controller.
type UpdatePayload struct {
	Entries []Entry
	Status  compat.Status
}

type trayController interface {
	Run(ctx context.Context, updates <-chan UpdatePayload, actions Actions) error
}

// Actions are the callbacks the controller invokes on clicks.
type Actions struct {
	Launch  func(ulid string)
	Refresh func()
	Install func()
}

// Runner keeps the tray menu in sync with the connector's site list.
type Runner struct {
	// InstallURL is opened when the install/update entry is clicked.
	InstallURL string

	source          SiteSource
	checker         StatusChecker
	fetcher         IconFetcher
	refreshInterval time.Duration

	mu         sync.RWMutex
	lastDigest string
	lastState  UpdatePayload
	iconCache  map[string][]byte

	tray            trayController
	updates         chan UpdatePayload
	refreshRequests chan struct{}
	launchCtx       context.Context
}

// NewRunner constructs a Runner. checker may be nil to skip the
// install/update entry.
func NewRunner(source SiteSource, checker StatusChecker, fetcher IconFetcher) *Runner {
	if fetcher == nil {
		fetcher = NewHTTPIconFetcher(nil)
	}
	return &Runner{
		source:          source,
		checker:         checker,
		fetcher:         fetcher,
		refreshInterval: defaultRefreshInterval,
		iconCache:       make(map[string][]byte),
		tray:            newTrayController(),
		updates:         make(chan UpdatePayload, 1),
		refreshRequests: make(chan struct{}, 1),
		launchCtx:       context.Background(),
	}
}

// Start runs the tray and refreshes the site list until ctx is canceled or
// the tray exits.
func (r *Runner) Start(ctx context.Context) error {
	logging.Debugf("tray runner initialising with refresh interval %s", r.refreshInterval)
	r.launchCtx = ctx

	var trayErr <-chan error
	if r.tray != nil {
		ch := make(chan error, 1)
		trayErr = ch
		actions := Actions{Launch: r.launch, Refresh: r.requestRefresh, Install: r.openInstallPage}
		go func() {
			ch <- r.tray.Run(ctx, r.updates, actions)
		}()
	}

	if err := r.syncOnce(ctx); err != nil {
		log.Printf("initial site sync failed: %v", err)
	}

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("tray stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("site refresh failed: %v", err)
			}
		case <-r.refreshRequests:
			logging.Debugf("manual refresh requested")
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("manual site refresh failed: %v", err)
			}
		case err := <-trayErr:
			return err
		}
	}
}

// Latest returns the most recently published tray state.
func (r *Runner) Latest() UpdatePayload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePayload(r.lastState)
}

func (r *Runner) syncOnce(ctx context.Context) error {
	status := compat.StatusOK
	if r.checker != nil {
		checked, err := r.checker.Check(ctx)
		if err != nil {
			log.Printf("connector check failed: %v", err)
		} else {
			status = checked
		}
	}

	var sites []protocol.Site
	if status != compat.StatusInstall {
		var err error
		sites, err = r.source.Sites(ctx)
		if err != nil {
			if !errors.Is(err, native.ErrUnavailable) {
				return fmt.Errorf("list sites: %w", err)
			}
			status = compat.StatusInstall
		}
	}

	entries := BuildEntries(sites)
	for i := range entries {
		entries[i].Icon = r.icon(ctx, entries[i].IconURL)
	}

	r.setState(UpdatePayload{Entries: entries, Status: status})
	return nil
}

// BuildEntries maps sites to menu entries sorted by label, choosing each
// site's icon for the menu size.
func BuildEntries(sites []protocol.Site) []Entry {
	entries := make([]Entry, 0, len(sites))
	for _, site := range sites {
		iconURL, _ := icons.Select(site.Icons(), manifest.PurposeAny, menuIconSize)
		entries = append(entries, Entry{
			ULID:    site.ULID,
			Label:   site.DisplayName(),
			Tooltip: site.StartURL(),
			IconURL: iconURL,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Label) < strings.ToLower(entries[j].Label)
	})
	return entries
}

func (r *Runner) icon(ctx context.Context, src string) []byte {
	if src == "" {
		return nil
	}

	r.mu.RLock()
	cached, ok := r.iconCache[src]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	data, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		logging.Debugf("fetch icon %s: %v", src, err)
		return nil
	}
	data = platformNormalizeIcon(data)

	r.mu.Lock()
	r.iconCache[src] = data
	r.mu.Unlock()
	return data
}

func (r *Runner) setState(state UpdatePayload) {
	digest := hashState(state)

	r.mu.Lock()
	if digest != "" && digest == r.lastDigest {
		r.mu.Unlock()
		return
	}
	r.lastDigest = digest
	r.lastState = clonePayload(state)
	r.mu.Unlock()

	logging.Debugf("published tray state with %d sites, status %s (digest=%s)", len(state.Entries), state.Status, digest)
	r.publish(state)
}

// publish replaces any pending update so the controller only sees the
// latest state.
func (r *Runner) publish(state UpdatePayload) {
	if r.updates == nil {
		return
	}
	update := clonePayload(state)

	select {
	case r.updates <- update:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- update:
		default:
		}
	}
}

func (r *Runner) launch(ulid string) {
	go func() {
		if err := r.source.LaunchSite(r.launchCtx, ulid); err != nil {
			var nativeErr *native.Error
			switch {
			case errors.Is(err, native.ErrUnavailable):
				log.Printf("cannot launch %s: connector is not installed", ulid)
				r.requestRefresh()
			case errors.As(err, &nativeErr):
				log.Printf("connector refused to launch %s: %s", ulid, nativeErr.Message)
			default:
				log.Printf("launch %s failed: %v", ulid, err)
			}
			return
		}
		logging.Debugf("launched site %s", ulid)
	}()
}

func (r *Runner) openInstallPage() {
	if err := openURL(r.InstallURL); err != nil {
		log.Printf("open install page: %v", err)
	}
}

func (r *Runner) requestRefresh() {
	select {
	case r.refreshRequests <- struct{}{}:
	default:
	}
}

func clonePayload(state UpdatePayload) UpdatePayload {
	out := UpdatePayload{Status: state.Status}
	if state.Entries != nil {
		out.Entries = make([]Entry, len(state.Entries))
		copy(out.Entries, state.Entries)
	}
	return out
}

func hashState(state UpdatePayload) string {
	payload, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	h := sha256.New()
	h.Write(payload)
	for _, entry := range state.Entries {
		h.Write(entry.Icon)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HTTPIconFetcher downloads icons over HTTP.
type HTTPIconFetcher struct {
	client *http.Client
}

// NewHTTPIconFetcher returns a fetcher using client, or http.DefaultClient.
func NewHTTPIconFetcher(client *http.Client) *HTTPIconFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPIconFetcher{client: client}
}

// Fetch downloads src, refusing non-2xx responses and bodies over 1 MiB.
func (f *HTTPIconFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png, image/x-icon, image/*")
	logging.LogHTTPRequest(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.LogHTTPResponse(resp, nil)
		return nil, fmt.Errorf("icon request failed (%d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxIconBytes {
		return nil, fmt.Errorf("icon exceeds %d bytes", maxIconBytes)
	}
	logging.LogHTTPResponse(resp, nil)
	return data, nil
}
