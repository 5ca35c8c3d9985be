// Package database implements the relational sink: each record becomes one
// INSERT with vendor-specific identifier quoting and placeholder formats.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// execTimeout bounds each insert.
const execTimeout = 5 * time.Second

// Vendor selects the identifier-quoting and placeholder rules.
type Vendor string

// The supported vendors.
const (
	MySQL      Vendor = "mysql"
	PostgreSQL Vendor = "postgresql"
	SQLite     Vendor = "sqlite"
)

// Execer is the slice of a SQL connection the sink uses. *sql.DB and
// *sql.Tx satisfy it; PgxExecer adapts a pgx pool.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Handler writes each record as a row. The insert columns are context,
// level, message, the registered root fields, and the JSON-encoded data
// map; the table must carry them (plus its own created-at default).
type Handler struct {
	*handler.Base
	db     Execer
	vendor Vendor
	table  string

	quoteOnce sync.Once
	quote     string

	builder squirrel.StatementBuilderType
}

var _ handler.Streamable = (*Handler)(nil)

// New validates the vendor and table and creates the sink.
func New(db Execer, vendor Vendor, table string, minLevel record.Level) (*Handler, error) {
	if db == nil {
		return nil, handler.NewConstructionError("database", "nil connection", nil)
	}
	if table == "" {
		return nil, handler.NewConstructionError("database", "empty table name", nil)
	}

	var builder squirrel.StatementBuilderType
	switch vendor {
	case PostgreSQL:
		builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	case MySQL, SQLite:
		builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	default:
		return nil, handler.NewConstructionError("database", "unknown vendor "+string(vendor), nil)
	}

	return &Handler{
		Base:    handler.NewBase("database", minLevel),
		db:      db,
		vendor:  vendor,
		table:   table,
		builder: builder,
	}, nil
}

// Handle inserts the record. Execution failures are swallowed.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	rec, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	query, args, err := h.insertStatement(rec)
	if err != nil {
		return "", false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}

// insertStatement builds the INSERT for a record, keeping column and value
// order aligned.
func (h *Handler) insertStatement(rec record.Record) (string, []any, error) {
	columns := []string{
		h.EscapeIdentifier("context"),
		h.EscapeIdentifier("level"),
		h.EscapeIdentifier("message"),
	}
	values := []any{rec.Context, rec.Level.String(), rec.Message}

	for _, f := range rec.Fields {
		columns = append(columns, h.EscapeIdentifier(f.Key))
		values = append(values, f.Value)
	}

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return "", nil, err
	}
	columns = append(columns, h.EscapeIdentifier("data"))
	values = append(values, string(data))

	return h.builder.
		Insert(h.EscapeIdentifier(h.table)).
		Columns(columns...).
		Values(values...).
		ToSql()
}

// EscapeIdentifier quotes an identifier with the vendor's quote character,
// doubling embedded quotes. The character is detected once and cached.
func (h *Handler) EscapeIdentifier(identifier string) string {
	h.quoteOnce.Do(func() {
		if h.vendor == MySQL {
			h.quote = "`"
		} else {
			h.quote = `"`
		}
	})
	escaped := strings.ReplaceAll(identifier, h.quote, h.quote+h.quote)
	return h.quote + escaped + h.quote
}
