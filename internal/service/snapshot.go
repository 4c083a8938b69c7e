package service

import (
	"encoding/json"

	"github.com/comanda-pos/api/internal/database"
)

// OrderSnapshot is the frozen image of an order persisted with its audit
// record. It is denormalized on purpose: the order, its items and links
// are deleted moments after this is built, so nothing here may point
// back at those rows.
type OrderSnapshot struct {
	Total        string         `json:"total"`
	CreatorName  string         `json:"creator_name"`
	IsTakeout    bool           `json:"is_takeout"`
	TableNumbers []int32        `json:"table_numbers"`
	Items        []SnapshotItem `json:"items"`
}

// SnapshotItem is one line item as it stood at cancellation time.
type SnapshotItem struct {
	DishDescription string `json:"dish_description"`
	Quantity        int32  `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
}

// NewOrderSnapshot builds the snapshot from rows loaded before any
// destructive delete.
func NewOrderSnapshot(order database.Order, creatorName string, tables []database.DiningTable, items []database.OrderItemDetail) OrderSnapshot {
	snap := OrderSnapshot{
		Total:        numericToDecimal(order.Total).StringFixed(2),
		CreatorName:  creatorName,
		IsTakeout:    order.IsTakeout,
		TableNumbers: make([]int32, 0, len(tables)),
		Items:        make([]SnapshotItem, 0, len(items)),
	}
	for _, t := range tables {
		snap.TableNumbers = append(snap.TableNumbers, t.TableNumber)
	}
	for _, it := range items {
		snap.Items = append(snap.Items, SnapshotItem{
			DishDescription: it.DishDescription,
			Quantity:        it.Quantity,
			UnitPrice:       numericToDecimal(it.UnitPrice).StringFixed(2),
		})
	}
	return snap
}

func (s OrderSnapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}
