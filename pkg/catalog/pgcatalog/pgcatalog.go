// Package pgcatalog serves globals from PostgreSQL tables.
//
// Every global name is taken to be a table (or view) name; looking it up
// reads the whole relation into a bag of structs, one field per column in
// column order. Names that are not relations are reported as not found.
package pgcatalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pqleval/pkg/catalog"
	"pqleval/pkg/datum"
	evalerr "pqleval/pkg/error"
	"pqleval/pkg/types"
)

// Catalog reads globals through a connection pool.
type Catalog struct {
	pool   *pgxpool.Pool
	schema string
}

// New wraps an open pool. An empty schema means the connection search_path.
func New(pool *pgxpool.Pool, schema string) *Catalog {
	return &Catalog{pool: pool, schema: schema}
}

// Connect opens a pool for the given connection string.
func Connect(ctx context.Context, url, schema string) (*Catalog, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "pgcatalog: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pgcatalog: ping")
	}
	return New(pool, schema), nil
}

// Close releases the pool.
func (c *Catalog) Close() {
	c.pool.Close()
}

func (c *Catalog) identifier(name string) pgx.Identifier {
	if c.schema == "" {
		return pgx.Identifier{name}
	}
	return pgx.Identifier{c.schema, name}
}

// Lookup implements catalog.Catalog.
func (c *Catalog) Lookup(ctx context.Context, name string) (catalog.Global, bool, error) {
	ident := c.identifier(name).Sanitize()

	var exists bool
	if err := c.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", ident).Scan(&exists); err != nil {
		return catalog.Global{}, false, failure(err, name)
	}
	if !exists {
		return catalog.Global{}, false, nil
	}

	rows, err := c.pool.Query(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return catalog.Global{}, false, failure(err, name)
	}
	defer rows.Close()

	cols := rows.FieldDescriptions()
	var elems []datum.Datum
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return catalog.Global{}, false, failure(err, name)
		}
		fields := make([]datum.Field, len(cols))
		for i, col := range cols {
			d, err := ToDatum(values[i])
			if err != nil {
				return catalog.Global{}, false, failure(errors.Wrapf(err, "column %s", col.Name), name)
			}
			fields[i] = datum.F(col.Name, d)
		}
		elems = append(elems, datum.StructOwned(fields))
	}
	if err := rows.Err(); err != nil {
		return catalog.Global{}, false, failure(err, name)
	}

	return catalog.Global{
		Name:  name,
		Type:  types.Bag(types.Struct()),
		Value: datum.Collect(elems, false),
	}, true, nil
}

func failure(err error, name string) error {
	return evalerr.Wrap(err, evalerr.KindCatalogFailure, "Lookup", "pgcatalog").WithDetail(name)
}

// ToDatum converts one value decoded by pgx. Types without a datum
// counterpart (timestamps, UUIDs, byte strings) become their text form.
func ToDatum(v any) (datum.Datum, error) {
	switch x := v.(type) {
	case nil:
		return datum.Null(), nil
	case bool:
		return datum.Bool(x), nil
	case int16:
		return datum.Int32(int32(x)), nil
	case int32:
		return datum.Int32(x), nil
	case int64:
		return datum.Int64(x), nil
	case string:
		return datum.String(x), nil
	case float32:
		return floatDatum(float64(x))
	case float64:
		return floatDatum(x)
	case pgtype.Numeric:
		return numericDatum(x)
	case time.Time:
		return datum.String(x.Format(time.RFC3339Nano)), nil
	case [16]byte:
		return datum.String(uuid.UUID(x).String()), nil
	case []byte:
		return datum.String(fmt.Sprintf("%x", x)), nil
	case []any:
		elems := make([]datum.Datum, len(x))
		for i, e := range x {
			d, err := ToDatum(e)
			if err != nil {
				return datum.Missing(), err
			}
			elems[i] = d
		}
		return datum.List(elems...), nil
	case map[string]any:
		// JSON objects come back as maps; their fields are ordered by name.
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]datum.Field, 0, len(x))
		for _, k := range keys {
			d, err := ToDatum(x[k])
			if err != nil {
				return datum.Missing(), err
			}
			fields = append(fields, datum.F(k, d))
		}
		return datum.StructOwned(fields), nil
	case fmt.Stringer:
		return datum.String(x.String()), nil
	default:
		return datum.Missing(), errors.Errorf("unsupported column value %T", v)
	}
}

func floatDatum(f float64) (datum.Datum, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return datum.Missing(), errors.Errorf("non-finite float %v", f)
	}
	return datum.NewDecimal(decimal.NewFromFloat(f), 0)
}

func numericDatum(n pgtype.Numeric) (datum.Datum, error) {
	if !n.Valid {
		return datum.Null(), nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return datum.Missing(), errors.New("non-finite numeric")
	}
	return datum.NewDecimal(decimal.NewFromBigInt(n.Int, n.Exp), 0)
}
