package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	k string
	v int
}

func (p *pair) CopyValues() []any { return []any{p.k, p.v} }

// recorder drains a CopyFromSource like COPY would, stopping after limit rows
// when limit > 0.
type recorder struct {
	table pgx.Identifier
	rows  [][]any
	limit int
	err   error
}

func (r *recorder) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	r.table = table
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		r.rows = append(r.rows, vals)
		if r.limit > 0 && len(r.rows) == r.limit {
			return int64(len(r.rows)), r.err
		}
	}
	return int64(len(r.rows)), src.Err()
}

func TestCopyRows(t *testing.T) {
	rows := []*pair{{"a", 1}, {"b", 2}, {"c", 3}}
	rec := &recorder{}
	n, err := CopyRows(context.Background(), rec, pgx.Identifier{"resp", "t"}, []string{"k", "v"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, [][]any{{"a", 1}, {"b", 2}, {"c", 3}}, rec.rows)
	assert.Equal(t, pgx.Identifier{"resp", "t"}, rec.table)
}

func TestCopyRows_Empty(t *testing.T) {
	rec := &recorder{}
	n, err := CopyRows[*pair](context.Background(), rec, pgx.Identifier{"t"}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyRows_CopyFailsEarly(t *testing.T) {
	// More rows than the channel buffers, so the producer is still blocked
	// when COPY gives up.
	rows := make([]*pair, copyBuffer*3)
	for i := range rows {
		rows[i] = &pair{"x", i}
	}
	rec := &recorder{limit: 2, err: errors.New("connection reset")}
	_, err := CopyRows(context.Background(), rec, pgx.Identifier{"resp", "t"}, []string{"k", "v"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), `"resp"."t"`)
}
