package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/internal/event"
	repo "storefront/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrShopperRequired = errors.New("shopper id is required")

// Shopper は1クライアント分のストア一式。
// 組み立て時に Reconciler を明示的に渡す。
type Shopper struct {
	ID         string
	Cart       *CartStore
	Guest      *GuestCartStore
	Auth       *AuthStore
	Reconciler *Reconciler
}

// Registry はショッパーごとのストアを作って保持する。
type Registry struct {
	mu       sync.Mutex
	records  repo.RecordRepository
	bus      event.Publisher
	log      logrus.FieldLogger
	authOpts []AuthStoreOption
	shoppers map[string]*shopperEntry
}

type shopperEntry struct {
	once    sync.Once
	shopper *Shopper
	err     error

	lastSeen time.Time // r.mu で守る
}

// DI
func NewRegistry(records repo.RecordRepository, bus event.Publisher, log logrus.FieldLogger, authOpts ...AuthStoreOption) *Registry {
	return &Registry{
		records:  records,
		bus:      bus,
		log:      log,
		authOpts: authOpts,
		shoppers: map[string]*shopperEntry{},
	}
}

// New は保存分を読まずにストア一式を組み立てる。
func (r *Registry) New(shopperID string) *Shopper {
	guest := NewGuestCartStore(shopperID, r.records, r.bus, r.log)
	cart := NewCartStore(shopperID, r.records, r.bus, guest, r.log)
	rec := NewReconciler(shopperID, guest, cart, r.log)
	auth := NewAuthStore(shopperID, r.records, r.bus, rec, r.log, r.authOpts...)

	return &Shopper{
		ID:         shopperID,
		Cart:       cart,
		Guest:      guest,
		Auth:       auth,
		Reconciler: rec,
	}
}

// Get はキャッシュ済みのショッパーを返す。無ければ作って保存分から復元する。
// 復元に失敗した場合は次回また読み直す。
func (r *Registry) Get(ctx context.Context, shopperID string) (*Shopper, error) {
	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		return nil, ErrShopperRequired
	}

	r.mu.Lock()
	entry, ok := r.shoppers[shopperID]
	if !ok {
		entry = &shopperEntry{}
		r.shoppers[shopperID] = entry
	}
	entry.lastSeen = time.Now()
	r.mu.Unlock()

	entry.once.Do(func() {
		s := r.New(shopperID)
		if err := Hydrate(ctx, s); err != nil {
			entry.err = err
			return
		}
		entry.shopper = s
	})

	if entry.err != nil {
		r.mu.Lock()
		if r.shoppers[shopperID] == entry {
			delete(r.shoppers, shopperID)
		}
		r.mu.Unlock()
		return nil, entry.err
	}
	return entry.shopper, nil
}

// Forget はキャッシュから外す（保存分は残る）。
func (r *Registry) Forget(shopperID string) {
	r.mu.Lock()
	delete(r.shoppers, shopperID)
	r.mu.Unlock()
}

// Evict は idle より長く使われていないショッパーを外し、外した数を返す。
// 保存分は残るので、次の Get で復元される。
func (r *Registry) Evict(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, entry := range r.shoppers {
		if now.Sub(entry.lastSeen) > idle {
			delete(r.shoppers, id)
			n++
		}
	}
	return n
}

// RunEviction は ctx が終わるまで interval ごとに Evict する。
func (r *Registry) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Evict(now, idle); n > 0 {
				r.log.WithFields(logrus.Fields{"evicted": n, "remaining": r.Len()}).Debug("registry: idle shoppers evicted")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}

// Hydrate はカート→ゲスト→セッションの順に復元する。
// セッションが有効なら Initialize が統合を始めるので最後に行う。
func Hydrate(ctx context.Context, s *Shopper) error {
	if err := s.Cart.Hydrate(ctx); err != nil {
		return err
	}
	if err := s.Guest.Hydrate(ctx); err != nil {
		return err
	}
	return s.Auth.Initialize(ctx)
}
