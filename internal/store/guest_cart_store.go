package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/domain/model"
	"storefront/internal/event"
	repo "storefront/internal/repository"

	"github.com/sirupsen/logrus"
)

// GuestCartStore は未ログイン時のカート。
// CartStore とは独立していて、つながるのは Reconciler 経由だけ。
// レコードは明細の配列をそのまま保存する。
type GuestCartStore struct {
	mu        sync.Mutex
	shopperID string
	records   repo.RecordRepository
	bus       event.Publisher
	log       logrus.FieldLogger

	items model.LineItems
}

// DI
func NewGuestCartStore(
	shopperID string,
	records repo.RecordRepository,
	bus event.Publisher,
	log logrus.FieldLogger,
) *GuestCartStore {
	return &GuestCartStore{
		shopperID: shopperID,
		records:   records,
		bus:       bus,
		log:       log,
		items:     model.LineItems{},
	}
}

func (g *GuestCartStore) key() model.RecordKey {
	return model.RecordKey{ShopperID: g.shopperID, Name: model.RecordGuestCart}
}

// 保存済みの配列を読み込む（壊れていたら空）
func (g *GuestCartStore) Hydrate(ctx context.Context) error {
	raw, err := g.records.Load(ctx, g.key())
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("guest cart: load: %w", err)
	}

	var items model.LineItems
	if err := json.Unmarshal(raw, &items); err != nil {
		g.log.WithFields(logrus.Fields{"shopper_id": g.shopperID, "error": err}).
			Warn("guest cart: malformed record, starting empty")
		return nil
	}

	merged := model.LineItems{}
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		merged = merged.Merge(it)
	}

	g.mu.Lock()
	g.items = merged
	g.mu.Unlock()
	return nil
}

// 同一IDは数量加算
func (g *GuestCartStore) AddItem(ctx context.Context, item model.LineItem) error {
	g.mu.Lock()
	g.items = g.items.Merge(item)
	return g.commitLocked(ctx)
}

func (g *GuestCartStore) RemoveItem(ctx context.Context, id string) error {
	g.mu.Lock()
	if g.items.IndexOf(id) < 0 {
		g.mu.Unlock()
		return nil
	}
	g.items = g.items.Without(id)
	return g.commitLocked(ctx)
}

func (g *GuestCartStore) UpdateQuantity(ctx context.Context, id string, quantity int64) error {
	if quantity <= 0 {
		return g.RemoveItem(ctx, id)
	}

	g.mu.Lock()
	i := g.items.IndexOf(id)
	if i < 0 {
		g.mu.Unlock()
		return nil
	}
	next := g.items.Clone()
	next[i].Quantity = quantity
	g.items = next
	return g.commitLocked(ctx)
}

// Clear は明細とレコードを消す。
func (g *GuestCartStore) Clear(ctx context.Context) error {
	g.mu.Lock()
	g.items = model.LineItems{}
	err := g.records.Delete(ctx, g.key())
	g.mu.Unlock()

	if err != nil {
		g.log.WithFields(logrus.Fields{"shopper_id": g.shopperID, "error": err}).
			Warn("guest cart: clear failed")
		err = fmt.Errorf("%w: guest cart: %v", ErrPersist, err)
	}
	g.publish(ctx, model.LineItems{})
	return err
}

// Drain は明細を取り出して空にする（Reconciler専用）。
// 空なら何もしない。
func (g *GuestCartStore) Drain(ctx context.Context) (model.LineItems, error) {
	g.mu.Lock()
	if len(g.items) == 0 {
		g.mu.Unlock()
		return nil, nil
	}
	out := g.items.Clone()
	g.items = model.LineItems{}
	err := g.records.Delete(ctx, g.key())
	g.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("%w: guest cart: %v", ErrPersist, err)
	}
	g.publish(ctx, model.LineItems{})
	return out, err
}

func (g *GuestCartStore) Items() model.LineItems {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.items.Clone()
}

func (g *GuestCartStore) Quantity(id string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if it, ok := g.items.Find(id); ok {
		return it.Quantity
	}
	return 0
}

func (g *GuestCartStore) LineTotal(id string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if it, ok := g.items.Find(id); ok {
		return it.Total()
	}
	return 0
}

// Snapshot はゲストカートの状態。開閉フラグは CartStore が持つ。
func (g *GuestCartStore) Snapshot() model.Cart {
	g.mu.Lock()
	defer g.mu.Unlock()
	return model.Cart{
		Kind:  model.CartKindGuest,
		Items: g.items.Clone(),
	}
}

// 数量の合計（バッジ表示用）
func (g *GuestCartStore) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.items.TotalQuantity()
}

func (g *GuestCartStore) TotalPrice() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.items.TotalPrice()
}

// commitLocked は保存してロックを外し、通知する。
func (g *GuestCartStore) commitLocked(ctx context.Context) error {
	snapshot := g.items.Clone()

	var err error
	raw, merr := json.Marshal(g.items)
	if merr != nil {
		err = fmt.Errorf("%w: guest cart: %v", ErrPersist, merr)
	} else if serr := g.records.Save(ctx, g.key(), raw); serr != nil {
		g.log.WithFields(logrus.Fields{"shopper_id": g.shopperID, "error": serr}).
			Warn("guest cart: persist failed, keeping local state")
		err = fmt.Errorf("%w: guest cart: %v", ErrPersist, serr)
	}
	g.mu.Unlock()

	g.publish(ctx, snapshot)
	return err
}

func (g *GuestCartStore) publish(ctx context.Context, items model.LineItems) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(ctx, event.Event{
		Topic:      event.TopicGuestCartChanged,
		ShopperID:  g.shopperID,
		Items:      items,
		TotalItems: items.TotalQuantity(),
	})
}
