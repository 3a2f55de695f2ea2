package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Row is a record that can be COPY-loaded.
type Row interface {
	CopyValues() []any
}

// CopyFromer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type CopyFromer interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel,
// so that the producer and the COPY writer run with natural backpressure.
type ChannelSource[T Row] struct {
	ch      <-chan T
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T Row](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource[Row])(nil)

const copyBuffer = 512

// CopyRows streams rows into table through a ChannelSource.
func CopyRows[T Row](ctx context.Context, dst CopyFromer, table pgx.Identifier, columns []string, rows []T) (int64, error) {
	ch := make(chan T, copyBuffer)
	done := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		for _, r := range rows {
			select {
			case ch <- r:
			case <-done:
				errCh <- nil
				return
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	n, err := dst.CopyFrom(ctx, table, columns, NewChannelSource(ch))
	// Release the producer if COPY stopped reading early.
	close(done)
	prodErr := <-errCh
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", table.Sanitize(), err)
	}
	if prodErr != nil {
		return n, fmt.Errorf("copy %s producer: %w", table.Sanitize(), prodErr)
	}
	return n, nil
}
