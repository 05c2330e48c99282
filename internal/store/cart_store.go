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

// GuestCartClearer はカートを空にした時にゲストカートも消すための約束。
type GuestCartClearer interface {
	Clear(ctx context.Context) error
}

// CartStore はログイン済みカートの状態を持つ。
// 変更のたびに保存して cart.changed を通知する。
type CartStore struct {
	mu        sync.Mutex
	shopperID string
	records   repo.RecordRepository
	bus       event.Publisher
	guest     GuestCartClearer
	log       logrus.FieldLogger

	items   model.LineItems
	visible bool
}

// DI
func NewCartStore(
	shopperID string,
	records repo.RecordRepository,
	bus event.Publisher,
	guest GuestCartClearer,
	log logrus.FieldLogger,
) *CartStore {
	return &CartStore{
		shopperID: shopperID,
		records:   records,
		bus:       bus,
		guest:     guest,
		log:       log,
		items:     model.LineItems{},
	}
}

func (s *CartStore) key() model.RecordKey {
	return model.RecordKey{ShopperID: s.shopperID, Name: model.RecordCart}
}

// Hydrate は保存済みの明細を読み込む。
// 壊れたレコードは空のカートとして扱う。
func (s *CartStore) Hydrate(ctx context.Context) error {
	raw, err := s.records.Load(ctx, s.key())
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: load: %w", err)
	}

	var rec model.CartRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.WithFields(logrus.Fields{"shopper_id": s.shopperID, "error": err}).
			Warn("cart: malformed record, starting empty")
		return nil
	}

	s.mu.Lock()
	s.items = sanitize(rec.Items)
	s.mu.Unlock()
	return nil
}

// 同一IDは数量を加算、無ければ追加
func (s *CartStore) AddItem(ctx context.Context, item model.LineItem) error {
	return s.mutate(ctx, func(items model.LineItems) (model.LineItems, bool) {
		return items.Merge(item), true
	})
}

// 無ければ何もしない
func (s *CartStore) RemoveItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(items model.LineItems) (model.LineItems, bool) {
		if items.IndexOf(id) < 0 {
			return items, false
		}
		return items.Without(id), true
	})
}

// 0以下は削除、それ以外は数量をそのまま設定（加算しない）
func (s *CartStore) UpdateQuantity(ctx context.Context, id string, quantity int64) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	return s.mutate(ctx, func(items model.LineItems) (model.LineItems, bool) {
		i := items.IndexOf(id)
		if i < 0 {
			return items, false
		}
		out := items.Clone()
		out[i].Quantity = quantity
		return out, true
	})
}

// Clear はカートを空にし、ゲストカートの保存分も消す。
func (s *CartStore) Clear(ctx context.Context) error {
	err := s.mutate(ctx, func(model.LineItems) (model.LineItems, bool) {
		return model.LineItems{}, true
	})

	if s.guest != nil {
		if gerr := s.guest.Clear(ctx); gerr != nil {
			err = errors.Join(err, gerr)
		}
	}
	return err
}

// MergeItems はゲストカートの明細を取り込む（Reconciler専用）。
func (s *CartStore) MergeItems(ctx context.Context, add model.LineItems) error {
	if len(add) == 0 {
		return nil
	}
	return s.mutate(ctx, func(items model.LineItems) (model.LineItems, bool) {
		return items.MergeAll(add), true
	})
}

// 数量（無ければ0）
func (s *CartStore) Quantity(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items.Find(id); ok {
		return it.Quantity
	}
	return 0
}

// 明細の小計（無ければ0）
func (s *CartStore) LineTotal(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items.Find(id); ok {
		return it.Total()
	}
	return 0
}

func (s *CartStore) SetVisible(v bool) {
	s.mu.Lock()
	s.visible = v
	s.mu.Unlock()
}

func (s *CartStore) Toggle() {
	s.mu.Lock()
	s.visible = !s.visible
	s.mu.Unlock()
}

func (s *CartStore) Open()  { s.SetVisible(true) }
func (s *CartStore) Close() { s.SetVisible(false) }

func (s *CartStore) Snapshot() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Cart{
		Kind:    model.CartKindAuthenticated,
		Items:   s.items.Clone(),
		Visible: s.visible,
	}
}

func (s *CartStore) TotalItems() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalQuantity()
}

func (s *CartStore) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalPrice()
}

// mutate はメモリ更新→保存→通知の順で行う。
// 保存に失敗してもメモリ上の状態は戻さない。
func (s *CartStore) mutate(ctx context.Context, fn func(model.LineItems) (model.LineItems, bool)) error {
	s.mu.Lock()
	next, changed := fn(s.items)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.items = next
	snapshot := next.Clone()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(ctx, event.Event{
			Topic:      event.TopicCartChanged,
			ShopperID:  s.shopperID,
			Items:      snapshot,
			TotalItems: snapshot.TotalQuantity(),
		})
	}
	return err
}

func (s *CartStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(model.CartRecord{Items: s.items})
	if err != nil {
		return fmt.Errorf("%w: cart: %v", ErrPersist, err)
	}
	if err := s.records.Save(ctx, s.key(), raw); err != nil {
		s.log.WithFields(logrus.Fields{"shopper_id": s.shopperID, "error": err}).
			Warn("cart: persist failed, keeping local state")
		return fmt.Errorf("%w: cart: %v", ErrPersist, err)
	}
	return nil
}

// 読み込んだ明細の重複IDをまとめる
func sanitize(items model.LineItems) model.LineItems {
	out := model.LineItems{}
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		out = out.Merge(it)
	}
	return out
}
