package model

import "time"

// 保存レコードの名前
type RecordName string

const (
	// ログイン済みカート
	RecordCart RecordName = "cart-storage"
	// ゲストカート
	RecordGuestCart RecordName = "local-cart"
	// セッション（token + user）
	RecordSession RecordName = "auth-storage"
)

// 1ショッパー×1名前で1レコード
type RecordKey struct {
	ShopperID string
	Name      RecordName
}

func (k RecordKey) String() string {
	return k.ShopperID + "__" + string(k.Name)
}

// 永続化されたドキュメント（JSON文字列）
type Record struct {
	ShopperID string    `gorm:"type:varchar(64);primaryKey" json:"shopper_id"`
	Name      string    `gorm:"type:varchar(64);primaryKey" json:"name"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string {
	return "storefront_records"
}
