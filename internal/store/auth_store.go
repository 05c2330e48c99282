package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/event"
	repo "storefront/internal/repository"

	"github.com/sirupsen/logrus"
)

// ログイン時にゲストカートを統合する約束
type CartReconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// トークンの期限を判定する約束
type TokenInspector interface {
	Expired(token string, now time.Time) bool
}

// Runner はタスクを非同期で実行する。
type Runner func(task func())

// GoRunner は goroutine で実行する。
func GoRunner(task func()) { go task() }

// InlineRunner はその場で実行する（テスト用）。
func InlineRunner(task func()) { task() }

// AuthState は画面に返す状態。
type AuthState struct {
	Session         model.Session `json:"session"`
	IsAuthenticated bool          `json:"is_authenticated"`
	IsLoading       bool          `json:"is_loading"`
	Error           string        `json:"error,omitempty"`
}

// AuthStore はセッション（token + user）を持つ。
type AuthStore struct {
	mu         sync.Mutex
	shopperID  string
	records    repo.RecordRepository
	bus        event.Publisher
	reconciler CartReconciler
	tokens     TokenInspector
	run        Runner
	now        func() time.Time
	log        logrus.FieldLogger

	session model.Session
	loading bool
	errMsg  string
}

type AuthStoreOption func(*AuthStore)

func WithRunner(r Runner) AuthStoreOption {
	return func(a *AuthStore) {
		if r != nil {
			a.run = r
		}
	}
}

func WithTokenInspector(t TokenInspector) AuthStoreOption {
	return func(a *AuthStore) { a.tokens = t }
}

func WithClock(now func() time.Time) AuthStoreOption {
	return func(a *AuthStore) {
		if now != nil {
			a.now = now
		}
	}
}

// DI
func NewAuthStore(
	shopperID string,
	records repo.RecordRepository,
	bus event.Publisher,
	reconciler CartReconciler,
	log logrus.FieldLogger,
	opts ...AuthStoreOption,
) *AuthStore {
	a := &AuthStore{
		shopperID:  shopperID,
		records:    records,
		bus:        bus,
		reconciler: reconciler,
		run:        GoRunner,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AuthStore) key() model.RecordKey {
	return model.RecordKey{ShopperID: a.shopperID, Name: model.RecordSession}
}

// Login はセッションを設定し、エラーを消して、統合を非同期で開始する。
// 統合の完了は待たない。
func (a *AuthStore) Login(ctx context.Context, token string, identity *model.Identity) error {
	next := model.Session{Token: strings.TrimSpace(token), Identity: identity}.Clone()
	if !next.IsAuthenticated() {
		return ErrInvalidSession
	}

	a.mu.Lock()
	a.session = next
	a.errMsg = ""
	err := a.persistLocked(ctx)
	a.mu.Unlock()

	a.publish(ctx)
	a.reconcileAsync(ctx)
	return err
}

// Logout はセッションと保存分を消す。カートは消さない。
func (a *AuthStore) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.session = model.Session{}
	a.errMsg = ""
	err := a.records.Delete(ctx, a.key())
	a.mu.Unlock()

	if err != nil {
		a.log.WithFields(logrus.Fields{"shopper_id": a.shopperID, "error": err}).
			Warn("auth: clear session record failed")
		err = fmt.Errorf("%w: session: %v", ErrPersist, err)
	}
	a.publish(ctx)
	return err
}

// Initialize は保存済みのセッションを復元する。
// 有効なら統合も開始する（前回の統合が途中だった場合の保険）。
func (a *AuthStore) Initialize(ctx context.Context) error {
	raw, err := a.records.Load(ctx, a.key())
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: load: %w", err)
	}

	var saved model.Session
	if err := json.Unmarshal(raw, &saved); err != nil {
		a.log.WithFields(logrus.Fields{"shopper_id": a.shopperID, "error": err}).
			Warn("auth: malformed session record")
		return a.Logout(ctx)
	}

	if !saved.IsAuthenticated() {
		return a.Logout(ctx)
	}
	if a.tokens != nil && a.tokens.Expired(saved.Token, a.now()) {
		a.log.WithField("shopper_id", a.shopperID).Info("auth: stored session expired")
		return a.Logout(ctx)
	}

	a.mu.Lock()
	a.session = saved.Clone()
	a.mu.Unlock()

	a.reconcileAsync(ctx)
	return nil
}

func (a *AuthStore) SetLoading(loading bool) {
	a.mu.Lock()
	a.loading = loading
	a.mu.Unlock()
}

// 空文字はエラー無し
func (a *AuthStore) SetError(msg string) {
	a.mu.Lock()
	a.errMsg = msg
	a.mu.Unlock()
}

func (a *AuthStore) ClearError() {
	a.SetError("")
}

func (a *AuthStore) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.IsAuthenticated()
}

// Token は現在のトークン（未ログインなら空）。
func (a *AuthStore) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Token
}

func (a *AuthStore) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AuthState{
		Session:         a.session.Clone(),
		IsAuthenticated: a.session.IsAuthenticated(),
		IsLoading:       a.loading,
		Error:           a.errMsg,
	}
}

func (a *AuthStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(a.session)
	if err != nil {
		return fmt.Errorf("%w: session: %v", ErrPersist, err)
	}
	if err := a.records.Save(ctx, a.key(), raw); err != nil {
		a.log.WithFields(logrus.Fields{"shopper_id": a.shopperID, "error": err}).
			Warn("auth: persist session failed")
		return fmt.Errorf("%w: session: %v", ErrPersist, err)
	}
	return nil
}

// リクエストが終わっても続けるので cancel は切り離す。
func (a *AuthStore) reconcileAsync(ctx context.Context) {
	if a.reconciler == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	a.run(func() {
		if _, err := a.reconciler.Reconcile(detached); err != nil {
			a.log.WithFields(logrus.Fields{"shopper_id": a.shopperID, "error": err}).
				Warn("auth: cart reconciliation failed")
		}
	})
}

func (a *AuthStore) publish(ctx context.Context) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(ctx, event.Event{Topic: event.TopicSessionChanged, ShopperID: a.shopperID})
}
