package view

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 250
)

// Column names a sortable table column.
type Column string

const (
	ColumnCountry    Column = "country"
	ColumnConfirmed  Column = "confirmed"
	ColumnDeath      Column = "death"
	ColumnRecovered  Column = "recovered"
	ColumnActive     Column = "active"
	ColumnPercentage Column = "percentage"
)

var columns = []Column{ColumnCountry, ColumnConfirmed, ColumnDeath, ColumnRecovered, ColumnActive, ColumnPercentage}

// Order is a sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Query selects the ordering and page of a table.
type Query struct {
	Sort     Column
	Order    Order
	Page     int
	PageSize int
}

// DefaultQuery lists the first page by active cases, highest first.
func DefaultQuery() Query {
	return Query{Sort: ColumnActive, Order: Descending, Page: 1, PageSize: DefaultPageSize}
}

// ParseQuery builds a Query from raw parameters. Empty values keep their
// defaults.
func ParseQuery(sort, order, page, pageSize string) (Query, error) {
	q := DefaultQuery()

	if sort != "" {
		c := Column(strings.ToLower(strings.TrimSpace(sort)))
		if !slices.Contains(columns, c) {
			return Query{}, fmt.Errorf("unknown sort column %q", sort)
		}
		q.Sort = c
	}

	switch o := Order(strings.ToLower(strings.TrimSpace(order))); o {
	case "":
	case Ascending, Descending:
		q.Order = o
	default:
		return Query{}, fmt.Errorf("unknown sort order %q", order)
	}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return Query{}, fmt.Errorf("invalid page %q", page)
		}
		q.Page = n
	}

	if pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil || n < 1 || n > MaxPageSize {
			return Query{}, fmt.Errorf("invalid page size %q (1-%d)", pageSize, MaxPageSize)
		}
		q.PageSize = n
	}

	return q, nil
}

// Row is one country in the statistics table.
type Row struct {
	Country    string  `json:"country"`
	Confirmed  int64   `json:"confirmed"`
	Death      int64   `json:"death"`
	Recovered  int64   `json:"recovered"`
	Active     int64   `json:"active"`
	Percentage float64 `json:"percentage"`
}

// TablePage is one page of sorted rows.
type TablePage struct {
	Rows     []Row `json:"rows"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// Table sorts every country by q.Sort and returns the requested page. Ties
// keep merge order. A page past the end is empty, not an error.
func Table(snap *domain.Snapshot, q Query) TablePage {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}

	rows := make([]Row, len(snap.Stats))
	for i, s := range snap.Stats {
		rows[i] = Row{
			Country:    s.CountryRegion,
			Confirmed:  s.TotalConfirmed,
			Death:      s.TotalDeath,
			Recovered:  s.TotalRecovered,
			Active:     s.TotalActive,
			Percentage: s.PercentageActive,
		}
	}

	compare := compareBy(q.Sort)
	slices.SortStableFunc(rows, func(a, b Row) int {
		if q.Order == Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})

	start := min((q.Page-1)*q.PageSize, len(rows))
	end := min(start+q.PageSize, len(rows))

	return TablePage{
		Rows:     rows[start:end],
		Total:    len(rows),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

func compareBy(c Column) func(a, b Row) int {
	switch c {
	case ColumnCountry:
		return func(a, b Row) int { return cmp.Compare(a.Country, b.Country) }
	case ColumnConfirmed:
		return func(a, b Row) int { return cmp.Compare(a.Confirmed, b.Confirmed) }
	case ColumnDeath:
		return func(a, b Row) int { return cmp.Compare(a.Death, b.Death) }
	case ColumnRecovered:
		return func(a, b Row) int { return cmp.Compare(a.Recovered, b.Recovered) }
	case ColumnPercentage:
		return func(a, b Row) int { return cmp.Compare(a.Percentage, b.Percentage) }
	default:
		return func(a, b Row) int { return cmp.Compare(a.Active, b.Active) }
	}
}
