package seeder

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Row types mirror a small slice of an e-commerce warehouse. Timestamps are
// stored as unix milliseconds so DuckDB can read them without a logical-type
// round trip.
type userRow struct {
	ID              int64   `parquet:"id"`
	FirstName       string  `parquet:"first_name"`
	LastName        string  `parquet:"last_name"`
	Email           string  `parquet:"email"`
	Age             int32   `parquet:"age"`
	Country         string  `parquet:"country"`
	TrafficSource   string  `parquet:"traffic_source"`
	CreatedAtUnixMs int64   `parquet:"created_at_unix_ms"`
	LifetimeValue   float64 `parquet:"lifetime_value"`
}

type productRow struct {
	ID          int64   `parquet:"id"`
	Name        string  `parquet:"name"`
	Category    string  `parquet:"category"`
	Brand       string  `parquet:"brand"`
	Department  string  `parquet:"department"`
	Cost        float64 `parquet:"cost"`
	RetailPrice float64 `parquet:"retail_price"`
}

type orderRow struct {
	ID              int64  `parquet:"id"`
	UserID          int64  `parquet:"user_id"`
	Status          string `parquet:"status"`
	NumItems        int32  `parquet:"num_items"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
	ShippedAtUnixMs int64  `parquet:"shipped_at_unix_ms"`
}

type orderItemRow struct {
	ID              int64   `parquet:"id"`
	OrderID         int64   `parquet:"order_id"`
	UserID          int64   `parquet:"user_id"`
	ProductID       int64   `parquet:"product_id"`
	Status          string  `parquet:"status"`
	SalePrice       float64 `parquet:"sale_price"`
	CreatedAtUnixMs int64   `parquet:"created_at_unix_ms"`
}

type demoRows struct {
	Users      []userRow
	Products   []productRow
	Orders     []orderRow
	OrderItems []orderItemRow
}

// generator produces the demo rows from a seeded PRNG anchored at a fixed
// base time, so the same config always yields the same dataset.
type generator struct {
	rnd *rand.Rand
	cfg Config
}

var baseTime = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func newGenerator(cfg Config) *generator {
	return &generator{rnd: rand.New(rand.NewSource(cfg.Seed)), cfg: cfg}
}

func (g *generator) generate() demoRows {
	rows := demoRows{
		Users:    make([]userRow, 0, g.cfg.Users),
		Products: make([]productRow, 0, g.cfg.Products),
		Orders:   make([]orderRow, 0, g.cfg.Orders),
	}

	for i := 0; i < g.cfg.Users; i++ {
		rows.Users = append(rows.Users, g.nextUser(int64(i + 1)))
	}
	for i := 0; i < g.cfg.Products; i++ {
		rows.Products = append(rows.Products, g.nextProduct(int64(i + 1)))
	}

	var itemID int64
	for i := 0; i < g.cfg.Orders; i++ {
		order := g.nextOrder(int64(i+1), int64(g.cfg.Users))
		rows.Orders = append(rows.Orders, order)
		for j := 0; j < int(order.NumItems); j++ {
			itemID++
			product := rows.Products[g.rnd.Intn(len(rows.Products))]
			rows.OrderItems = append(rows.OrderItems, orderItemRow{
				ID:              itemID,
				OrderID:         order.ID,
				UserID:          order.UserID,
				ProductID:       product.ID,
				Status:          order.Status,
				SalePrice:       round2(product.RetailPrice * (0.8 + g.rnd.Float64()*0.2)),
				CreatedAtUnixMs: order.CreatedAtUnixMs,
			})
		}
	}
	return rows
}

func (g *generator) nextUser(id int64) userRow {
	first := pickOne(g.rnd, []string{"Ada", "Ben", "Carla", "Dmitri", "Elena", "Femi", "Grace", "Hiro", "Ines", "Jonas"})
	last := pickOne(g.rnd, []string{"Schmidt", "Tanaka", "Okafor", "Novak", "Silva", "Larsen", "Moreau", "Kim", "Patel", "Walsh"})
	created := baseTime.AddDate(0, 0, -g.rnd.Intn(730))
	return userRow{
		ID:              id,
		FirstName:       first,
		LastName:        last,
		Email:           fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), id),
		Age:             int32(18 + g.rnd.Intn(52)),
		Country:         pickOne(g.rnd, []string{"US", "DE", "GB", "IN", "JP", "BR"}),
		TrafficSource:   pickOne(g.rnd, []string{"search", "email", "display", "organic", "facebook"}),
		CreatedAtUnixMs: created.UnixMilli(),
		LifetimeValue:   round2(g.rnd.Float64() * 2000),
	}
}

func (g *generator) nextProduct(id int64) productRow {
	category := pickOne(g.rnd, []string{"Jeans", "Sweaters", "Shoes", "Accessories", "Outerwear", "Activewear"})
	brand := pickOne(g.rnd, []string{"Northline", "Varra", "Kestrel", "Bluepine", "Mondo"})
	retail := round2(10 + g.rnd.Float64()*290)
	return productRow{
		ID:          id,
		Name:        fmt.Sprintf("%s %s %d", brand, category, id),
		Category:    category,
		Brand:       brand,
		Department:  pickOne(g.rnd, []string{"Women", "Men"}),
		Cost:        round2(retail * (0.35 + g.rnd.Float64()*0.25)),
		RetailPrice: retail,
	}
}

func (g *generator) nextOrder(id, userCount int64) orderRow {
	created := baseTime.AddDate(0, 0, -g.rnd.Intn(365)).Add(time.Duration(g.rnd.Intn(86400)) * time.Second)
	status := pickStatus(g.rnd)
	var shipped int64
	if status == "Shipped" || status == "Complete" {
		shipped = created.Add(time.Duration(1+g.rnd.Intn(96)) * time.Hour).UnixMilli()
	}
	return orderRow{
		ID:              id,
		UserID:          1 + g.rnd.Int63n(userCount),
		Status:          status,
		NumItems:        int32(1 + g.rnd.Intn(g.cfg.MaxItemsPerOrder)),
		CreatedAtUnixMs: created.UnixMilli(),
		ShippedAtUnixMs: shipped,
	}
}

func pickStatus(r *rand.Rand) string {
	p := r.Intn(100)
	switch {
	case p < 55:
		return "Complete"
	case p < 75:
		return "Shipped"
	case p < 88:
		return "Processing"
	case p < 96:
		return "Cancelled"
	default:
		return "Returned"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
