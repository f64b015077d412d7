package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const inventoryField = "inventory"

// Stock is the inventory of a product: either a single count or a count per
// size label. Counts are never negative.
type Stock struct {
	sized  bool
	count  int
	bySize map[string]int
}

func ScalarStock(count int) Stock {
	return Stock{count: nonNegative(count)}
}

func SizedStock(bySize map[string]int) Stock {
	m := make(map[string]int, len(bySize))
	for size, n := range bySize {
		m[size] = nonNegative(n)
	}
	return Stock{sized: true, bySize: m}
}

func (s Stock) IsSized() bool {
	return s.sized
}

// Available returns the purchasable count. The size is ignored for scalar stock.
func (s Stock) Available(size string) int {
	if !s.sized {
		return s.count
	}
	return s.bySize[size]
}

func (s Stock) HasSize(size string) bool {
	if !s.sized {
		return false
	}
	_, ok := s.bySize[size]
	return ok
}

func (s Stock) Sizes() []string {
	sizes := make([]string, 0, len(s.bySize))
	for size := range s.bySize {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}

// Decrement removes qty units, clamping at zero.
func (s Stock) Decrement(size string, qty int) Stock {
	if !s.sized {
		return ScalarStock(s.count - qty)
	}

	m := make(map[string]int, len(s.bySize))
	for k, v := range s.bySize {
		m[k] = v
	}
	if _, ok := m[size]; ok {
		m[size] = nonNegative(m[size] - qty)
	}
	return Stock{sized: true, bySize: m}
}

// FieldPath is the document path holding the count for size.
func (s Stock) FieldPath(size string) string {
	return StockFieldPath(s.sized, size)
}

func StockFieldPath(sized bool, size string) string {
	if !sized {
		return inventoryField
	}
	return fmt.Sprintf("%s.%s", inventoryField, size)
}

func (s Stock) MarshalJSON() ([]byte, error) {
	if s.sized {
		return json.Marshal(s.bySize)
	}
	return json.Marshal(s.count)
}

func (s *Stock) UnmarshalJSON(data []byte) error {
	var count int
	if err := json.Unmarshal(data, &count); err == nil {
		*s = ScalarStock(count)
		return nil
	}

	var bySize map[string]int
	if err := json.Unmarshal(data, &bySize); err != nil {
		return fmt.Errorf("inventory must be a number or a size map: %w", err)
	}
	*s = SizedStock(bySize)
	return nil
}

func (s Stock) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if s.sized {
		m := make(map[string]int64, len(s.bySize))
		for k, v := range s.bySize {
			m[k] = int64(v)
		}
		return bson.MarshalValue(m)
	}
	return bson.MarshalValue(int64(s.count))
}

func (s *Stock) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Int32:
		*s = ScalarStock(int(raw.Int32()))
	case bsontype.Int64:
		*s = ScalarStock(int(raw.Int64()))
	case bsontype.Double:
		*s = ScalarStock(int(raw.Double()))
	case bsontype.Null, bsontype.Undefined:
		*s = ScalarStock(0)
	case bsontype.EmbeddedDocument:
		var doc map[string]interface{}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		bySize := make(map[string]int, len(doc))
		for size, v := range doc {
			bySize[size] = toInt(v)
		}
		*s = SizedStock(bySize)
	default:
		return fmt.Errorf("unsupported inventory type %s", t)
	}

	return nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
