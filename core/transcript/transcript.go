// Package transcript maintains the canonical ordered transcript and the
// idempotent mutation primitives the session router drives.
//
// Items are never deleted; IsHidden suppresses rendering instead. Reads
// return deep-copied snapshots sorted by CreatedAtMs, because network
// arrival order is not a reliable ordering signal.
package transcript

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ItemType string

const (
	TypeMessage    ItemType = "MESSAGE"
	TypeToolNote   ItemType = "TOOL_NOTE"
	TypeBreadcrumb ItemType = "BREADCRUMB"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GuardrailResult is a moderation verdict attached to a message after
// the fact.
type GuardrailResult struct {
	Status    Status
	Category  string
	Rationale string
	Excerpt   string
}

// Item is one entry in the ordered transcript.
type Item struct {
	ItemID      string
	Type        ItemType
	Role        Role
	Title       string
	Text        string
	Data        map[string]any
	Status      Status
	Guardrail   *GuardrailResult
	CreatedAtMs int64
	IsHidden    bool
	Expanded    bool
}

// Patch merges fields into an existing item. Nil pointer fields leave
// the current value untouched; Data is shallow-merged key by key.
type Patch struct {
	Title     *string
	Status    *Status
	Data      map[string]any
	Guardrail *GuardrailResult
	Hidden    *bool
}

type Transcript struct {
	mu sync.RWMutex

	items []*Item
	index map[string]*Item

	lastCreatedAtMs int64
	now             func() time.Time
}

type Option func(*Transcript)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Transcript) { t.now = now }
}

func New(opts ...Option) *Transcript {
	t := &Transcript{
		index: map[string]*Item{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// nextCreatedAtMs assigns a strictly increasing ordering key so items
// created within the same millisecond keep their append order under sort.
func (t *Transcript) nextCreatedAtMs() int64 {
	ms := t.now().UnixMilli()
	if ms <= t.lastCreatedAtMs {
		ms = t.lastCreatedAtMs + 1
	}
	t.lastCreatedAtMs = ms
	return ms
}

// AddMessage creates a MESSAGE item. A message is created at most once
// per item id: a repeated create for an existing id is ignored and
// AddMessage reports false.
func (t *Transcript) AddMessage(itemID string, role Role, text string, hidden bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.index[itemID]; exists {
		return false
	}

	item := &Item{
		ItemID:      itemID,
		Type:        TypeMessage,
		Role:        role,
		Text:        text,
		Status:      StatusInProgress,
		CreatedAtMs: t.nextCreatedAtMs(),
		IsHidden:    hidden,
	}
	t.items = append(t.items, item)
	t.index[itemID] = item
	return true
}

// UpdateMessage appends (delta) or replaces the message text. A missing
// item is a no-op so delta events racing the creation event are tolerated;
// the router pre-creates the item before applying deltas.
func (t *Transcript) UpdateMessage(itemID, text string, delta bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.index[itemID]
	if !ok || item.Type != TypeMessage {
		return false
	}

	if delta {
		item.Text += text
	} else {
		item.Text = text
	}
	return true
}

// AddToolNote creates a TOOL_NOTE item. A repeated add for an existing
// id is ignored so duplicate start events collapse to one note.
func (t *Transcript) AddToolNote(title string, data map[string]any, itemID string, status Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.index[itemID]; exists {
		return false
	}

	item := &Item{
		ItemID:      itemID,
		Type:        TypeToolNote,
		Title:       title,
		Data:        cloneData(data),
		Status:      status,
		CreatedAtMs: t.nextCreatedAtMs(),
	}
	t.items = append(t.items, item)
	t.index[itemID] = item
	return true
}

// AddBreadcrumb creates an always-visible BREADCRUMB item with a locally
// synthesized id, returned to the caller.
func (t *Transcript) AddBreadcrumb(title string, data map[string]any) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	item := &Item{
		ItemID:      "breadcrumb-" + uuid.NewString(),
		Type:        TypeBreadcrumb,
		Title:       title,
		Data:        cloneData(data),
		Status:      StatusDone,
		CreatedAtMs: t.nextCreatedAtMs(),
	}
	t.items = append(t.items, item)
	t.index[item.ItemID] = item
	return item.ItemID
}

// UpdateItem merges patch into an existing item without disturbing
// unspecified fields. Status never moves backward from DONE.
func (t *Transcript) UpdateItem(itemID string, patch Patch) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.index[itemID]
	if !ok {
		return false
	}

	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Status != nil && !(item.Status == StatusDone && *patch.Status == StatusInProgress) {
		item.Status = *patch.Status
	}
	if patch.Guardrail != nil {
		guardrail := *patch.Guardrail
		item.Guardrail = &guardrail
	}
	if patch.Hidden != nil {
		item.IsHidden = *patch.Hidden
	}
	if len(patch.Data) > 0 {
		if item.Data == nil {
			item.Data = map[string]any{}
		}
		for key, value := range patch.Data {
			item.Data[key] = value
		}
	}
	return true
}

// ToggleExpand flips the UI expansion flag; it does not affect lifecycle.
func (t *Transcript) ToggleExpand(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.index[itemID]
	if !ok {
		return false
	}
	item.Expanded = !item.Expanded
	return true
}

// Get returns a copy of the item with the given id.
func (t *Transcript) Get(itemID string) (Item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item, ok := t.index[itemID]
	if !ok {
		return Item{}, false
	}
	return copyItem(item), true
}

// Has reports whether an item with the given id exists.
func (t *Transcript) Has(itemID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.index[itemID]
	return ok
}

// Len returns the number of items, hidden included.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.items)
}

// Items returns a deep-copied snapshot sorted by CreatedAtMs.
func (t *Transcript) Items() []Item {
	t.mu.RLock()

	snapshot := make([]Item, 0, len(t.items))
	for _, item := range t.items {
		snapshot = append(snapshot, copyItem(item))
	}
	t.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAtMs < snapshot[j].CreatedAtMs
	})
	return snapshot
}

// LatestAssistantMessage returns a copy of the most recently created
// assistant message, hidden ones included.
func (t *Transcript) LatestAssistantMessage() (Item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var latest *Item
	for _, item := range t.items {
		if item.Type != TypeMessage || item.Role != RoleAssistant {
			continue
		}
		if latest == nil || item.CreatedAtMs >= latest.CreatedAtMs {
			latest = item
		}
	}
	if latest == nil {
		return Item{}, false
	}
	return copyItem(latest), true
}

func copyItem(item *Item) Item {
	out := Item{}
	copier.CopyWithOption(&out, item, copier.Option{DeepCopy: true})
	return out
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}
	return out
}
