package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecordFirestoreRepository は Firestore にレコードを保存する。
//
// - collection: storefront_records
// - docId: <shopperId>__<name>
// - fields: shopperId, name, value, updatedAt
type RecordFirestoreRepository struct {
	Client     *firestore.Client
	Collection string
}

func NewRecordFirestoreRepository(client *firestore.Client) *RecordFirestoreRepository {
	return &RecordFirestoreRepository{Client: client, Collection: "storefront_records"}
}

type recordDoc struct {
	ShopperID string    `firestore:"shopperId"`
	Name      string    `firestore:"name"`
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (r *RecordFirestoreRepository) col() *firestore.CollectionRef {
	name := strings.TrimSpace(r.Collection)
	if name == "" {
		name = "storefront_records"
	}
	return r.Client.Collection(name)
}

func (r *RecordFirestoreRepository) check(key model.RecordKey) error {
	if r == nil || r.Client == nil {
		return errors.New("record_firestore: firestore client is nil")
	}
	if strings.TrimSpace(key.ShopperID) == "" {
		return errors.New("record_firestore: shopperID is empty")
	}
	return nil
}

func (r *RecordFirestoreRepository) Load(ctx context.Context, key model.RecordKey) ([]byte, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}

	snap, err := r.col().Doc(key.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	if snap == nil || !snap.Exists() {
		return nil, repo.ErrNotFound
	}

	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return []byte(doc.Value), nil
}

// 丸ごと上書き
func (r *RecordFirestoreRepository) Save(ctx context.Context, key model.RecordKey, value []byte) error {
	if err := r.check(key); err != nil {
		return err
	}

	doc := recordDoc{
		ShopperID: key.ShopperID,
		Name:      string(key.Name),
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.col().Doc(key.String()).Set(ctx, doc)
	return err
}

func (r *RecordFirestoreRepository) Delete(ctx context.Context, key model.RecordKey) error {
	if err := r.check(key); err != nil {
		return err
	}

	_, err := r.col().Doc(key.String()).Delete(ctx)
	if err != nil && status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}
