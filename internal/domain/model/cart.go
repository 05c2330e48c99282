package model

// カートの種類
type CartKind string

const (
	// ログイン済みのカート
	CartKindAuthenticated CartKind = "AUTHENTICATED"
	// 未ログイン（ゲスト）のカート
	CartKindGuest CartKind = "GUEST"
)

// Cart はストアが保持する状態のスナップショット。
// 合計値は保存せず、明細から都度計算する。
type Cart struct {
	Kind    CartKind  `json:"kind"`
	Items   LineItems `json:"items"`
	Visible bool      `json:"visible"`
}

func (c Cart) TotalItems() int64 {
	return c.Items.TotalQuantity()
}

func (c Cart) TotalPrice() int64 {
	return c.Items.TotalPrice()
}

// 永続化するカートの中身（可視状態は保存しない）
type CartRecord struct {
	Items LineItems `json:"items"`
}
