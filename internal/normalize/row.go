package normalize

import (
	"sort"
	"time"
)

// Row is the uniform representation of one exchange record after
// normalization, regardless of whether it came from an API pull or a CSV
// export. Symbols and type are canonical; CounterSymbol, Price and Cost
// are only set on rows that were joined against trade data.
type Row struct {
	ExternalID    string
	RefID         string
	Timestamp     time.Time
	Type          string
	Subtype       string
	AssetSymbol   string
	CounterSymbol string
	Amount        float64
	Fee           float64
	Balance       float64
	Pair          string
	Price         float64
	Cost          float64
}

// SortRows orders rows ascending by timestamp. Chronological replay
// matters because position quantities and valuations compound.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
}
