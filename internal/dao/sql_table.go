package dao

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

func init() {
	RegisterSource(SQLTableRID, func(_ Factory, loc Locator) (RowSource, error) {
		return OpenSQLTable(loc.Path, loc.Table, loc.OrderBy, loc.KeyColumn)
	})
}

const (
	defaultKeyColumn  = "id"
	nameColumn        = "name"
	createdAtColumn   = "created_at"
	sqliteDSNSettings = "?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=temp_store(MEMORY)"
)

// SQLTable serves the rows of one SQLite table through LIMIT/OFFSET paging.
type SQLTable struct {
	db      *sql.DB
	table   string
	orderBy string
	key     string
}

// OpenSQLTable opens the database at path and serves table ordered by orderBy.
func OpenSQLTable(path, table, orderBy, key string) (*SQLTable, error) {
	if path == "" || table == "" {
		return nil, fmt.Errorf("sql source needs a database path and a table")
	}
	db, err := sql.Open("sqlite", path+sqliteDSNSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewSQLTable(db, table, orderBy, key), nil
}

// NewSQLTable serves table from an open database.
func NewSQLTable(db *sql.DB, table, orderBy, key string) *SQLTable {
	if key == "" {
		key = defaultKeyColumn
	}
	if orderBy == "" {
		orderBy = key
	}
	return &SQLTable{db: db, table: table, orderBy: orderBy, key: key}
}

// ResourceID returns the source kind.
func (*SQLTable) ResourceID() ResourceID {
	return SQLTableRID
}

// Close closes the database.
func (s *SQLTable) Close() error {
	return s.db.Close()
}

// Count returns the number of rows in the table.
func (s *SQLTable) Count(ctx context.Context) (int, error) {
	var n int
	q := "SELECT COUNT(*) FROM " + quoteIdent(s.table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.table, err)
	}
	return n, nil
}

// List returns limit rows starting at offset.
func (s *SQLTable) List(ctx context.Context, offset, limit int) ([]Object, error) {
	q := fmt.Sprintf("SELECT * FROM %s ORDER BY %s, %s LIMIT ? OFFSET ?",
		quoteIdent(s.table), quoteIdent(s.orderBy), quoteIdent(s.key))
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	oo := make([]Object, 0, limit)
	for rows.Next() {
		vals, ptrs := make([]any, len(cols)), make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
		}
		oo = append(oo, s.toObject(cols, vals))
	}

	return oo, rows.Err()
}

func (s *SQLTable) toObject(cols []string, vals []any) Object {
	o := BaseObject{Attrs: make(map[string]string, len(cols))}
	raw := make(map[string]any, len(cols))
	for i, c := range cols {
		v := sqlString(vals[i])
		raw[c], o.Attrs[c] = vals[i], v
		switch {
		case strings.EqualFold(c, s.key):
			o.ID = v
		case strings.EqualFold(c, nameColumn):
			o.Name = v
		case strings.EqualFold(c, createdAtColumn):
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				o.CreatedAt = &t
			}
		}
	}
	if o.Name == "" {
		o.Name = o.ID
	}
	o.Raw = raw

	return &o
}

func sqlString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SeedSQLTable creates table in db and fills it with n demo rows.
func SeedSQLTable(ctx context.Context, db *sql.DB, table string, n int) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`, quoteIdent(table))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (id, name, size, created_at) VALUES (?, ?, ?, ?)", quoteIdent(table)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range demoRecords(n) {
		if _, err := stmt.ExecContext(ctx, r.id, r.name, r.size, r.createdAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.id, err)
		}
	}

	return tx.Commit()
}

// SeedSQLFile fills table of the database at path with n demo rows.
func SeedSQLFile(ctx context.Context, path, table string, n int) error {
	db, err := sql.Open("sqlite", path+sqliteDSNSettings)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return SeedSQLTable(ctx, db, table, n)
}
