package domain

// Category is a class of requestable fact. Each category owns a fallback
// chain, a cache key scheme and a TTL.
type Category string

const (
	CategoryPrice           Category = "price"
	CategoryGas             Category = "gas"
	CategoryHistoricalPrice Category = "historical-price"
)

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}
