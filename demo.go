package main

import (
	"fmt"
	"math/rand"

	"github.com/icrowley/fake"

	"pqleval/pkg/catalog"
	"pqleval/pkg/datum"
)

const (
	demoCustomers = 8
	demoOrders    = 24
)

var demoStatuses = []string{"completed", "processing", "shipped"}

// demoPlan totals the orders of every customer older than 30:
//
//	SELECT c.name AS customer, COUNT(*) AS orders, SUM(o.total) AS spent
//	FROM customers c LEFT JOIN orders o ON o.customerId = c.id
//	WHERE c.age > 30 GROUP BY c.name ORDER BY spent DESC NULLS LAST
const demoPlan = `op: select
input:
  op: sort
  input:
    op: aggregate
    input:
      op: filter
      input:
        op: join
        kind: left
        left: {op: scan, source: {op: global, name: customers}, as: c}
        right: {op: scan, source: {op: global, name: orders}, as: o}
        on:
          op: binary
          operator: "="
          left: {op: field, root: {op: var, name: o}, name: customerId}
          right: {op: field, root: {op: var, name: c}, name: id}
      predicate:
        op: binary
        operator: ">"
        left: {op: field, root: {op: var, name: c}, name: age}
        right: {op: lit, value: 30}
    keys:
      - expr: {op: field, root: {op: var, name: c}, name: name}
        name: customer
    calls:
      - {fn: "COUNT", arg: {op: var, name: o}, name: orders}
      - {fn: SUM, arg: {op: field, root: {op: var, name: o}, name: total}, name: spent}
  specs:
    - key: {op: var, name: spent}
      desc: true
      nulls: last
project:
  op: struct
  fields:
    - name: customer
      value: {op: var, name: customer}
    - name: orders
      value: {op: var, name: orders}
    - name: spent
      value: {op: var, name: spent}
`

// demoCatalog generates customers and orders globals. The same seed always
// yields the same data. Some orders have no status, so plans can exercise
// MISSING.
func demoCatalog(seed int64) *catalog.Memory {
	fake.Seed(seed)
	rnd := rand.New(rand.NewSource(seed))

	customers := make([]datum.Datum, demoCustomers)
	for i := range customers {
		customers[i] = datum.Struct(
			datum.F("id", datum.Int32(int32(i+1))),
			datum.F("name", datum.String(fake.FullName())),
			datum.F("email", datum.String(fake.EmailAddress())),
			datum.F("city", datum.String(fake.City())),
			datum.F("age", datum.Int32(int32(18+rnd.Intn(60)))),
		)
	}

	orders := make([]datum.Datum, demoOrders)
	for i := range orders {
		fields := []datum.Field{
			datum.F("id", datum.Int64(int64(1000+i))),
			datum.F("customerId", datum.Int32(int32(1+rnd.Intn(demoCustomers)))),
			datum.F("product", datum.String(fake.ProductName())),
			datum.F("total", datum.MustDecimal(fmt.Sprintf("%d.%02d", rnd.Intn(500), rnd.Intn(100)))),
		}
		if rnd.Intn(4) != 0 {
			fields = append(fields, datum.F("status", datum.String(demoStatuses[rnd.Intn(len(demoStatuses))])))
		}
		orders[i] = datum.Struct(fields...)
	}

	mem := catalog.NewMemory()
	mem.Set("customers", datum.Bag(customers...))
	mem.Set("orders", datum.Bag(orders...))
	return mem
}
