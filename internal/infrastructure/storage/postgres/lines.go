package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/id"
)

// Lines stores the child rows of a document keyed by a foreign key column.
type Lines[L any] struct {
	*Table[L]
	fk       string
	inserter *BatchInserter
	executor *BatchExecutor
	batched  bool
}

// NewLines creates a line table accessor. fk is the column referencing the header.
func NewLines[L any](txm *TxManager, name, fk string) *Lines[L] {
	return &Lines[L]{
		Table:    NewTable[L](txm, name, name),
		fk:       fk,
		inserter: NewBatchInserter(txm),
		executor: NewBatchExecutor(txm),
	}
}

// Batched switches Replace from COPY to queued INSERT statements. Used for
// lines carrying numeric columns, which COPY would send in binary form.
func (l *Lines[L]) Batched() *Lines[L] {
	l.batched = true
	return l
}

// FK returns the column referencing the header.
func (l *Lines[L]) FK() string { return l.fk }

// Replace deletes the lines of docID and copies in lines.
func (l *Lines[L]) Replace(ctx context.Context, docID id.ID, lines []L) error {
	return l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.Delete(ctx, squirrel.Eq{l.fk: docID}); err != nil {
			return err
		}
		if l.batched {
			return l.insertBatch(ctx, lines)
		}
		rows := make([][]any, 0, len(lines))
		for i := range lines {
			rows = append(rows, StructToRow(&lines[i], l.cols))
		}
		if _, err := l.inserter.CopyFromSlice(ctx, l.name, l.cols, rows); err != nil {
			return l.translate(fmt.Errorf("copy %s: %w", l.name, err))
		}
		return nil
	})
}

func (l *Lines[L]) insertBatch(ctx context.Context, lines []L) error {
	queries := make([]BatchQuery, 0, len(lines))
	for i := range lines {
		sql, args, err := Builder().Insert(l.name).SetMap(l.row(&lines[i])).ToSql()
		if err != nil {
			return fmt.Errorf("build line insert: %w", err)
		}
		queries = append(queries, BatchQuery{SQL: sql, Args: args})
	}
	if err := l.executor.ExecuteBatch(ctx, queries); err != nil {
		return l.translate(fmt.Errorf("insert %s: %w", l.name, err))
	}
	return nil
}

// Load returns the lines of docID ordered by line number.
func (l *Lines[L]) Load(ctx context.Context, docID id.ID) ([]L, error) {
	ptrs, err := l.Find(ctx, l.Select().Where(squirrel.Eq{l.fk: docID}).OrderBy("line_no"))
	if err != nil {
		return nil, err
	}
	out := make([]L, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

// LoadMany returns the lines of several documents grouped by header id.
func (l *Lines[L]) LoadMany(ctx context.Context, docIDs []id.ID, key func(L) id.ID) (map[id.ID][]L, error) {
	out := make(map[id.ID][]L, len(docIDs))
	if len(docIDs) == 0 {
		return out, nil
	}
	ptrs, err := l.Find(ctx, l.Select().Where(squirrel.Eq{l.fk: docIDs}).OrderBy(l.fk, "line_no"))
	if err != nil {
		return nil, err
	}
	for _, p := range ptrs {
		k := key(*p)
		out[k] = append(out[k], *p)
	}
	return out, nil
}
