package catalog

import (
	"strconv"
	"strings"
	"sync"

	wildcard "github.com/IGLOU-EU/go-wildcard/v2"
)

// Layout constants for the automatic page-size computation. They mirror the
// frontend grid's CSS so both sides agree on how many cards fit.
const (
	cardGap        = 12
	minCardWidth   = 150
	cardMetaHeight = 60  // name + appid rows under the cover
	chromeMargin   = 180 // toolbar, pager, paddings
	minAvailHeight = 280
	defaultGridW   = 800
	defaultHeaderH = 56
)

// Viewport describes the browser geometry the page size derives from.
type Viewport struct {
	GridWidth      int `json:"grid_width"`
	ViewportHeight int `json:"viewport_height"`
	HeaderHeight   int `json:"header_height"`
}

// PageInfo summarizes the pagination state for rendering.
type PageInfo struct {
	Current    int  `json:"current"`
	TotalPages int  `json:"total_pages"`
	PageSize   int  `json:"page_size"`
	Filtered   int  `json:"filtered"`
	Total      int  `json:"total"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Engine owns the full catalog, the search and online-only filters, and the
// page cursor. The visible page is a pure function of (catalog, filters,
// viewport, page); the current page is always clamped into [1, totalPages].
type Engine struct {
	mu sync.RWMutex

	items    []Item
	filtered []Item

	search     string
	onlineOnly bool

	page          int // 1-based
	fixedPageSize int
	viewport      Viewport

	// locked causes card activation to be ignored while a foreground
	// action is in flight. The page itself keeps rendering.
	locked bool
}

// NewEngine creates an engine. A positive fixedPageSize takes precedence
// over the viewport-derived size.
func NewEngine(fixedPageSize int) *Engine {
	return &Engine{
		page:          1,
		fixedPageSize: fixedPageSize,
	}
}

// Replace swaps the full catalog wholesale and resets the page cursor.
func (e *Engine) Replace(items []Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = items
	e.page = 1
	e.refilterLocked()
}

// Items returns the full unfiltered catalog.
func (e *Engine) Items() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.items
}

// SetSearch applies a new search query and resets to the first page.
// Callers debounce keystrokes upstream so only the last one lands here.
func (e *Engine) SetSearch(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = strings.TrimSpace(text)
	e.page = 1
	e.refilterLocked()
}

// ClearSearch resets the query, equivalent to SetSearch("").
func (e *Engine) ClearSearch() {
	e.SetSearch("")
}

// Search returns the current query.
func (e *Engine) Search() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.search
}

// SetOnlineOnly toggles the online-only filter and resets to the first page.
func (e *Engine) SetOnlineOnly(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onlineOnly = on
	e.page = 1
	e.refilterLocked()
}

// OnlineOnly returns the current online-only toggle.
func (e *Engine) OnlineOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.onlineOnly
}

// SetViewport applies new browser geometry and re-clamps the page cursor.
// Callers debounce resize events upstream.
func (e *Engine) SetViewport(vp Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = vp
	e.clampLocked()
}

// SetLocked marks a foreground action in flight. While locked, card
// activation is ignored; rendering is unaffected.
func (e *Engine) SetLocked(locked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = locked
}

// Locked reports whether a foreground action is in flight.
func (e *Engine) Locked() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.locked
}

// PageSize returns the effective page size: the fixed configured value when
// set, otherwise the viewport-derived value.
func (e *Engine) PageSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pageSizeLocked()
}

// VisiblePage returns the slice of the filtered catalog for the current page.
func (e *Engine) VisiblePage() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ps := e.pageSizeLocked()
	start := (e.page - 1) * ps
	if start >= len(e.filtered) {
		return nil
	}
	end := start + ps
	if end > len(e.filtered) {
		end = len(e.filtered)
	}
	page := make([]Item, end-start)
	copy(page, e.filtered[start:end])
	return page
}

// PageInfo returns the pagination summary for the current state.
func (e *Engine) PageInfo() PageInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ps := e.pageSizeLocked()
	total := e.totalPagesLocked(ps)
	return PageInfo{
		Current:    e.page,
		TotalPages: total,
		PageSize:   ps,
		Filtered:   len(e.filtered),
		Total:      len(e.items),
		HasPrev:    e.page > 1,
		HasNext:    e.page < total,
	}
}

// GoPrev moves back one page. It is a no-op on the first page; the return
// value reports whether the cursor moved.
func (e *Engine) GoPrev() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page <= 1 {
		return false
	}
	e.page--
	return true
}

// GoNext moves forward one page. It is a no-op on the last page; the return
// value reports whether the cursor moved.
func (e *Engine) GoNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page >= e.totalPagesLocked(e.pageSizeLocked()) {
		return false
	}
	e.page++
	return true
}

// SetPage jumps to the requested page, clamped into [1, totalPages].
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = page
	e.clampLocked()
}

// CurrentPage returns the 1-based page cursor.
func (e *Engine) CurrentPage() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.page
}

// Contains reports whether the full catalog holds the given record id.
func (e *Engine) Contains(recordID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, item := range e.items {
		if item.RecordID == recordID {
			return true
		}
	}
	return false
}

func (e *Engine) refilterLocked() {
	e.filtered = e.filtered[:0]
	query := strings.ToLower(e.search)
	for _, item := range e.items {
		if query != "" && !matches(item, query) {
			continue
		}
		if e.onlineOnly && !item.OnlineSupported {
			continue
		}
		e.filtered = append(e.filtered, item)
	}
	e.clampLocked()
}

// matches applies the search predicate against name or appid. Queries
// containing wildcard metacharacters use pattern matching; plain queries use
// case-insensitive substring matching.
func matches(item Item, query string) bool {
	name := strings.ToLower(item.Name)
	appID := strconv.FormatInt(item.AppID, 10)
	if strings.ContainsAny(query, "*?") {
		return wildcard.Match(query, name) || wildcard.Match(query, appID)
	}
	return strings.Contains(name, query) || strings.Contains(appID, query)
}

func (e *Engine) clampLocked() {
	total := e.totalPagesLocked(e.pageSizeLocked())
	if e.page > total {
		e.page = total
	}
	if e.page < 1 {
		e.page = 1
	}
}

func (e *Engine) totalPagesLocked(pageSize int) int {
	pages := (len(e.filtered) + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func (e *Engine) pageSizeLocked() int {
	if e.fixedPageSize > 0 {
		return e.fixedPageSize
	}
	return autoPageSize(e.viewport)
}

// autoPageSize derives how many cards fit the viewport: columns by
// floor-division of the grid width, card height from the card width by the
// 2:3 cover aspect ratio plus the metadata rows, rows by floor-division of
// the vertical space left after the header and chrome. Never less than one
// row of columns.
func autoPageSize(vp Viewport) int {
	gridW := vp.GridWidth
	if gridW <= 0 {
		gridW = defaultGridW
	}
	headerH := vp.HeaderHeight
	if headerH <= 0 {
		headerH = defaultHeaderH
	}

	cols := (gridW + cardGap) / (minCardWidth + cardGap)
	if cols < 1 {
		cols = 1
	}
	cardW := float64(gridW-(cols-1)*cardGap) / float64(cols)
	cardH := cardW*3/2 + cardMetaHeight

	availH := vp.ViewportHeight - headerH - chromeMargin
	if availH < minAvailHeight {
		availH = minAvailHeight
	}
	rows := int(float64(availH) / (cardH + cardGap))
	if rows < 1 {
		rows = 1
	}

	size := cols * rows
	if size < cols {
		size = cols
	}
	return size
}
