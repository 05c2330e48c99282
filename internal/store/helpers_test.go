package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/event"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"

	"github.com/stretchr/testify/mock"
)

// =====================
// 通知の記録
// =====================

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev event.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) topics() []event.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Topic, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Topic)
	}
	return out
}

func (p *recordingPublisher) last() event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return event.Event{}
	}
	return p.events[len(p.events)-1]
}

// =====================
// RecordRepository モック（保存失敗の確認用）
// =====================

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Load(ctx context.Context, key model.RecordKey) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockRecordRepository) Save(ctx context.Context, key model.RecordKey, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRecordRepository) Delete(ctx context.Context, key model.RecordKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// =====================
// helper
// =====================

const testShopper = "shopper-1"

func item(id string, qty int64) model.LineItem {
	return model.LineItem{ID: id, Name: "item-" + id, UnitPrice: 1000, Quantity: qty}
}

type fixture struct {
	records *infraRepo.RecordMemoryRepository
	pub     *recordingPublisher
	shopper *Shopper
}

func newFixture(t *testing.T, opts ...AuthStoreOption) *fixture {
	t.Helper()

	records := infraRepo.NewRecordMemoryRepository()
	pub := &recordingPublisher{}
	opts = append([]AuthStoreOption{WithRunner(InlineRunner)}, opts...)
	reg := NewRegistry(records, pub, logger.Discard(), opts...)

	return &fixture{
		records: records,
		pub:     pub,
		shopper: reg.New(testShopper),
	}
}

type fixedExpiry struct {
	expired bool
}

func (f fixedExpiry) Expired(string, time.Time) bool { return f.expired }

func quantities(items model.LineItems) map[string]int64 {
	out := map[string]int64{}
	for _, it := range items {
		out[it.ID] = it.Quantity
	}
	return out
}

func newMemoryRecords() *infraRepo.RecordMemoryRepository {
	return infraRepo.NewRecordMemoryRepository()
}

// 同じ保存先を使う別のストア一式（再起動後の復元を想定）
func newFixtureWithRecords(t *testing.T, f *fixture) *Shopper {
	t.Helper()
	reg := NewRegistry(f.records, nil, logger.Discard(), WithRunner(InlineRunner))
	return reg.New(testShopper)
}
