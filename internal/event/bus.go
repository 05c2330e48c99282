package event

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
)

type Topic string

const (
	TopicCartChanged      Topic = "cart.changed"
	TopicGuestCartChanged Topic = "guest_cart.changed"
	TopicSessionChanged   Topic = "session.changed"
)

// Event は変更通知。Items は変更後の明細（セッション通知では空）。
type Event struct {
	Topic      Topic           `json:"topic"`
	ShopperID  string          `json:"shopper_id"`
	Items      model.LineItems `json:"items,omitempty"`
	TotalItems int64           `json:"total_items"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Hook は通知を受け取る。
type Hook interface {
	Notify(ctx context.Context, ev Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, ev Event) error

func (fn HookFunc) Notify(ctx context.Context, ev Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, ev)
}

// Publisher はストアが依存する送信側の約束。
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// 購読チャネルのバッファ
const subscriberBuffer = 16

type subscriber struct {
	shopperID string
	ch        chan Event
}

// Bus はプロセス内の通知バス。
// Hook は同期で呼び、購読チャネルへは詰まっていたら捨てる。
type Bus struct {
	mu     sync.RWMutex
	hooks  []Hook
	subs   map[int]subscriber
	nextID int
	onErr  func(ev Event, err error)
}

func NewBus(hooks ...Hook) *Bus {
	b := &Bus{subs: map[int]subscriber{}}
	for _, h := range hooks {
		if h != nil {
			b.hooks = append(b.hooks, h)
		}
	}
	return b
}

// OnHookError は Hook が失敗した時の受け口を設定する。
func (b *Bus) OnHookError(fn func(ev Event, err error)) {
	b.mu.Lock()
	b.onErr = fn
	b.mu.Unlock()
}

// AddHook は Hook を追加する。
func (b *Bus) AddHook(h Hook) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.hooks = append(b.hooks, h)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b == nil {
		return
	}
	if strings.TrimSpace(string(ev.Topic)) == "" {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ev.Items = ev.Items.Clone()

	b.mu.RLock()
	hooks := append([]Hook(nil), b.hooks...)
	onErr := b.onErr
	b.mu.RUnlock()

	var errs []error
	for _, h := range hooks {
		if err := h.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && onErr != nil {
		onErr(ev, errors.Join(errs...))
	}

	// cancel と競合しないよう読み取りロック中に送る
	b.mu.RLock()
	for _, sub := range b.subs {
		if sub.shopperID != "" && sub.shopperID != ev.ShopperID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
	b.mu.RUnlock()
}

// Subscribe はショッパー単位の購読を返す。shopperID が空なら全件。
// cancel を呼ぶとチャネルは閉じられる。
func (b *Bus) Subscribe(shopperID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{shopperID: shopperID, ch: ch}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers は現在の購読数。
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
