// 包 store 提供行式存储的只读访问（SQLite / PostgreSQL），
// 将任意表的行扫描为 model.Record，供数据源归一化使用。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"crawl-dashboard/internal/model"
)

// Store 封装 *sql.DB；SQLite 基于 modernc.org/sqlite（纯 Go 实现），PostgreSQL 基于 lib/pq。
type Store struct {
	db     *sql.DB
	driver string
}

// New 包装已打开的连接（测试中配合 sqlmock 使用）。
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// OpenSQLite 以只读方式打开 SQLite 数据库文件。
func OpenSQLite(path string) (*Store, error) {
	// modernc sqlite 支持 file: URI，mode=ro 保证不会意外写入爬虫数据库
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &Store{db: db, driver: "sqlite"}, nil
}

// OpenPostgres 连接 PostgreSQL 并做一次连通性检查。
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, driver: "postgres"}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() string { return s.driver }

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ReadTable 读取一张表：按 orderBy 倒序、最多 limit 行；orderBy 为空时不排序。
// 表名/列名来自配置，只接受普通标识符。
func (s *Store) ReadTable(ctx context.Context, table, orderBy string, limit int) ([]model.Record, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	q := fmt.Sprintf(`SELECT * FROM "%s"`, table)
	if orderBy != "" {
		if !identRe.MatchString(orderBy) {
			return nil, fmt.Errorf("invalid order column %q", orderBy)
		}
		q += fmt.Sprintf(` ORDER BY "%s" DESC`, orderBy)
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	var out []model.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec := make(model.Record, len(cols))
		for i, c := range cols {
			// 驱动对 TEXT 列可能返回 []byte，统一为 string
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}
