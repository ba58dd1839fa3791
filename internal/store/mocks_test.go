package store

import (
	"context"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type MockPgPool struct {
	QueryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	ExecFunc  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	QuerySQL  []string
	QueryArgs [][]any
	ExecSQL   []string
	ExecArgs  [][]any
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.QuerySQL = append(m.QuerySQL, sql)
	m.QueryArgs = append(m.QueryArgs, args)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPgRows{}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.ExecSQL = append(m.ExecSQL, sql)
	m.ExecArgs = append(m.ExecArgs, args)
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// MockPgRows serves Data one row per Next/Scan pair.
type MockPgRows struct {
	Data [][]any
	curr int
}

func (r *MockPgRows) Close()                                       {}
func (r *MockPgRows) Err() error                                   { return nil }
func (r *MockPgRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *MockPgRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *MockPgRows) Next() bool {
	r.curr++
	return r.curr <= len(r.Data)
}
func (r *MockPgRows) Scan(dest ...any) error {
	row := r.Data[r.curr-1]
	for i := range dest {
		assign(dest[i], row[i])
	}
	return nil
}
func (r *MockPgRows) Values() ([]any, error) { return nil, nil }
func (r *MockPgRows) RawValues() [][]byte    { return nil }
func (r *MockPgRows) Conn() *pgx.Conn        { return nil }

type MockCHConn struct {
	driver.Conn
	QueryFunc func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)

	QuerySQL  []string
	QueryArgs [][]interface{}
}

func (m *MockCHConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.QuerySQL = append(m.QuerySQL, query)
	m.QueryArgs = append(m.QueryArgs, args)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &MockCHRows{}, nil
}

type MockCHRows struct {
	driver.Rows
	Data [][]interface{}
	curr int
}

func (r *MockCHRows) Next() bool {
	r.curr++
	return r.curr <= len(r.Data)
}
func (r *MockCHRows) Scan(dest ...interface{}) error {
	row := r.Data[r.curr-1]
	for i := range dest {
		assign(dest[i], row[i])
	}
	return nil
}
func (r *MockCHRows) Close() error { return nil }
func (r *MockCHRows) Err() error   { return nil }

func assign(dest any, val any) {
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	v.Set(reflect.ValueOf(val))
}

func intPtr(n int) *int { return &n }
