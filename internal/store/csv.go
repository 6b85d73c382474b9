package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-map/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// orderDateLayouts are tried in order; the dataset has shipped with both.
var orderDateLayouts = []string{"2006-01-02", "1/2/2006"}

// OrderStore owns the immutable order sequence for the session lifetime.
type OrderStore struct {
	mu      sync.RWMutex
	orders  []models.Order
	minDate time.Time
	maxDate time.Time
	logger  *slog.Logger
}

func NewOrderStore(logger *slog.Logger) *OrderStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderStore{logger: logger}
}

// SetOrders replaces the order set directly (tests, cache hydration).
func (s *OrderStore) SetOrders(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
	s.minDate, s.maxDate = scanDateBounds(orders)
}

// Orders returns the backing slice. Orders are immutable once loaded, so
// sharing it is safe.
func (s *OrderStore) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// Bounds returns the dataset's minimum and maximum order dates.
func (s *OrderStore) Bounds() (time.Time, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minDate, s.maxDate
}

func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// LoadCSV parses the superstore CSV. Rows with unparseable dates are skipped;
// missing numeric fields coalesce to zero rather than failing the row, since
// the dataset occasionally has gaps.
func (s *OrderStore) LoadCSV(ctx context.Context, filename string) error {
	start := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open orders csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	columns := indexColumns(header)

	var (
		mu     sync.Mutex
		orders []models.Order
	)

	batch := make([][]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		parsed, err := parseBatch(ctx, batch, columns)
		if err != nil {
			return err
		}
		mu.Lock()
		orders = append(orders, parsed...)
		mu.Unlock()
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if len(orders) == 0 {
		return fmt.Errorf("no valid records found in %s", filename)
	}

	s.SetOrders(orders)

	s.logger.Info("orders loaded",
		"records", len(orders),
		"duration", time.Since(start),
	)
	return nil
}

// parseBatch parses records with bounded parallelism. Slots keep input order;
// invalid rows leave their slot nil and are compacted afterwards.
func parseBatch(ctx context.Context, batch [][]string, columns columnIndex) ([]models.Order, error) {
	slots := make([]*models.Order, len(batch))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i := range batch {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if order, ok := parseOrder(batch[i], columns); ok {
				slots[i] = &order
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(batch))
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out, nil
}

type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func (c columnIndex) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseOrder(record []string, columns columnIndex) (models.Order, bool) {
	orderDate, err := parseOrderDate(columns.get(record, "Order Date"))
	if err != nil {
		return models.Order{}, false
	}
	// the ship date is informational; a bad value doesn't drop the row
	shipDate, _ := parseOrderDate(columns.get(record, "Ship Date"))

	return models.Order{
		OrderID:       columns.get(record, "Order ID"),
		OrderDate:     orderDate,
		ShipDate:      shipDate,
		ShipMode:      columns.get(record, "Ship Mode"),
		Segment:       columns.get(record, "Segment"),
		City:          columns.get(record, "City"),
		Country:       columns.get(record, "Country"),
		Market:        columns.get(record, "Market"),
		ProductName:   columns.get(record, "Product Name"),
		Category:      columns.get(record, "Category"),
		SubCategory:   columns.get(record, "Sub-Category"),
		Sales:         parseFloatOrZero(columns.get(record, "Sales")),
		Quantity:      parseIntOrZero(columns.get(record, "Quantity")),
		Discount:      parseFloatOrZero(columns.get(record, "Discount")),
		Profit:        parseFloatOrZero(columns.get(record, "Profit")),
		ShippingCost:  parseFloatOrZero(columns.get(record, "Shipping Cost")),
		OrderPriority: columns.get(record, "Order Priority"),
	}, true
}

func parseOrderDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range orderDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseFloatOrZero(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseIntOrZero(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func scanDateBounds(orders []models.Order) (time.Time, time.Time) {
	var min, max time.Time
	for i := range orders {
		d := orders[i].OrderDate
		if min.IsZero() || d.Before(min) {
			min = d
		}
		if max.IsZero() || d.After(max) {
			max = d
		}
	}
	return min, max
}
