package postgres

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"tabnest/internal/domain/repositories"
)

type sqlCall struct {
	sql  string
	args []any
}

// fakeTx stands in for the transaction GetExecutor picks up from the
// context. Only the DBTX methods are implemented; anything else panics.
type fakeTx struct {
	pgx.Tx

	calls   []sqlCall
	batches []*pgx.Batch

	// rows answers Query, row answers QueryRow (one entry per call, in order)
	rows    [][]any
	row     [][]any
	rowErr  error
	tag     pgconn.CommandTag
	execErr error
}

func newFakeTx() *fakeTx {
	return &fakeTx{tag: pgconn.NewCommandTag("UPDATE 1")}
}

func (f *fakeTx) ctx() context.Context {
	return repositories.SetTx(context.Background(), f)
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sqlCall{sql: sql, args: args})
	return f.tag, f.execErr
}

func (f *fakeTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, sqlCall{sql: sql, args: args})
	return &fakeRows{records: f.rows}, nil
}

func (f *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, sqlCall{sql: sql, args: args})
	if f.rowErr != nil {
		return fakeRow{err: f.rowErr}
	}
	var values []any
	if len(f.row) > 0 {
		values, f.row = f.row[0], f.row[1:]
	}
	return fakeRow{values: values}
}

func (f *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	return &fakeBatchResults{}
}

// last returns the most recent statement with whitespace collapsed
func (f *fakeTx) last() sqlCall {
	c := f.calls[len(f.calls)-1]
	return sqlCall{sql: compact(c.sql), args: c.args}
}

func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// scanInto copies values into dest pointers; nil values leave dest untouched
func scanInto(dest []any, values []any) error {
	for i, d := range dest {
		if i >= len(values) || values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.values == nil {
		return pgx.ErrNoRows
	}
	return scanInto(dest, r.values)
}

type fakeRows struct {
	records [][]any
	idx     int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.records) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(dest, r.records[r.idx-1])
}

type fakeBatchResults struct{}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("UPDATE 1"), nil
}
func (b *fakeBatchResults) Query() (pgx.Rows, error) { return &fakeRows{}, nil }
func (b *fakeBatchResults) QueryRow() pgx.Row        { return fakeRow{} }
func (b *fakeBatchResults) Close() error             { return nil }

func testConfig() *RepositoryConfig {
	return &RepositoryConfig{
		Tables: NewTableNames("t_"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
