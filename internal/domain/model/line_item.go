package model

import "math"

// 商品バリアント（SKU単位）
type Variant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// カートの明細
// IDは商品またはバリアントのIDで、マージのキーになる。
// UnitPriceは最小通貨単位（例: セント）。
type LineItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"price"`
	Quantity  int64    `json:"quantity"`
	ImageRef  string   `json:"image,omitempty"`
	Variant   *Variant `json:"variant,omitempty"`
}

// 明細の小計
func (li LineItem) Total() int64 {
	return li.UnitPrice * li.Quantity
}

// MulPrice は単価×数量。int64に収まらなければ ok=false。
func MulPrice(unitPrice, quantity int64) (int64, bool) {
	if unitPrice == 0 || quantity == 0 {
		return 0, true
	}
	if (unitPrice == -1 && quantity == math.MinInt64) || (quantity == -1 && unitPrice == math.MinInt64) {
		return 0, false
	}
	total := unitPrice * quantity
	if total/unitPrice != quantity {
		return 0, false
	}
	return total, true
}

// 明細の並び（同一IDは1件まで）
type LineItems []LineItem

// IDの位置を返す。無ければ-1。
func (items LineItems) IndexOf(id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Find は明細を探す。
func (items LineItems) Find(id string) (LineItem, bool) {
	if i := items.IndexOf(id); i >= 0 {
		return items[i], true
	}
	return LineItem{}, false
}

// 同一IDは数量を加算、無ければ末尾に追加した新しい並びを返す。
func (items LineItems) Merge(add LineItem) LineItems {
	out := items.Clone()
	if i := out.IndexOf(add.ID); i >= 0 {
		out[i].Quantity = out[i].Quantity + add.Quantity
		return out
	}
	return append(out, cloneItem(add))
}

// MergeAll は other を順番に Merge する。
func (items LineItems) MergeAll(other LineItems) LineItems {
	out := items.Clone()
	for _, it := range other {
		out = out.Merge(it)
	}
	return out
}

// Without は指定IDを除いた並びを返す。
func (items LineItems) Without(id string) LineItems {
	out := make(LineItems, 0, len(items))
	for _, it := range items {
		if it.ID == id {
			continue
		}
		out = append(out, cloneItem(it))
	}
	return out
}

// 数量の合計
func (items LineItems) TotalQuantity() int64 {
	var total int64
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// 金額の合計（単価×数量）
func (items LineItems) TotalPrice() int64 {
	var total int64
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Clone は Variant まで含めてコピーする。
func (items LineItems) Clone() LineItems {
	out := make(LineItems, 0, len(items))
	for _, it := range items {
		out = append(out, cloneItem(it))
	}
	return out
}

func cloneItem(it LineItem) LineItem {
	if it.Variant != nil {
		v := *it.Variant
		it.Variant = &v
	}
	return it
}
