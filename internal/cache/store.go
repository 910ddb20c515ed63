// Package cache is the embedded key-addressable store for raw source rows.
// One table per source, natural-key upserts, inclusive date-range reads.
// It deliberately offers no transactions or concurrency control beyond what
// SQLite provides; the refresh flow serializes writers above this layer.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"gorm.io/gorm"
)

// Row is what the store persists: a table name plus parallel column
// name/value slices.
type Row interface {
	TableName() string
	ColumnNames() []string
	ColumnValues() []any
}

// Store fronts the embedded cache database.
type Store struct {
	client *db.Client
}

func NewStore(client *db.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema idempotently creates every source table. Safe to call on
// each startup and exposed as the explicit initialize step.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.client.DB().WithContext(ctx).AutoMigrate(
		&FacebookRow{},
		&GoogleAdsRow{},
		&TikTokRow{},
		&AnalyticsRow{},
		&OpportunityRow{},
		&AttributionRow{},
		&TransactionRow{},
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeSchema, err, "creating cache tables")
	}
	return nil
}

// Upsert writes rows by natural key: rows whose key already exists get every
// non-key column updated, the rest are inserted. Key parts are compared as
// trimmed strings, so a date stored as text matches a date arriving as a
// typed value. Within a batch the last row for a key wins. Any malformed row
// fails the whole batch; nothing is partially written.
func (s *Store) Upsert(ctx context.Context, rows []Row, keyColumns []string) error {
	if len(rows) == 0 {
		return nil
	}
	if len(keyColumns) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "upsert requires key columns")
	}
	table := rows[0].TableName()

	existing, err := s.existingKeys(ctx, table, keyColumns)
	if err != nil {
		return err
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		for i, row := range rows {
			names := row.ColumnNames()
			values := row.ColumnValues()
			if len(names) != len(values) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("row %d of %s has %d columns but %d values", i, table, len(names), len(values)))
			}
			if row.TableName() != table {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("row %d targets table %s, batch targets %s", i, row.TableName(), table))
			}

			keyValues, err := pickKeyValues(names, values, keyColumns)
			if err != nil {
				return err
			}
			key := normalizeKey(keyValues)

			if _, ok := existing[key]; ok {
				if err := updateRow(tx, table, names, values, keyColumns, keyValues); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cached row")
				}
			} else {
				if err := insertRow(tx, table, names, values); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting cached row")
				}
			}
			existing[key] = struct{}{}
		}
		return nil
	})
}

// QueryRange returns every row of table whose dateField falls inside
// [start, end], both inclusive.
func QueryRange[T any](ctx context.Context, s *Store, table, dateField, start, end string) ([]T, error) {
	if err := validIdentifier(dateField); err != nil {
		return nil, err
	}
	var out []T
	err := s.client.DB().WithContext(ctx).
		Table(table).
		Where(fmt.Sprintf("%s BETWEEN ? AND ?", dateField), start, end).
		Find(&out).Error
	if err != nil {
		if db.IsMissingTable(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSchema, err,
				fmt.Sprintf("table %s does not exist; run the initialize step first", table))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying cache range")
	}
	return out, nil
}

// ClearTable deletes every row of the named table. Administrative use only.
func (s *Store) ClearTable(ctx context.Context, table string) error {
	if err := validIdentifier(table); err != nil {
		return err
	}
	err := s.client.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)).Error
	if err != nil {
		if db.IsMissingTable(err) {
			return pkgerrors.Wrap(pkgerrors.CodeSchema, err,
				fmt.Sprintf("table %s does not exist", table))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing table")
	}
	return nil
}

func (s *Store) existingKeys(ctx context.Context, table string, keyColumns []string) (map[string]struct{}, error) {
	for _, col := range keyColumns {
		if err := validIdentifier(col); err != nil {
			return nil, err
		}
	}
	var records []map[string]any
	err := s.client.DB().WithContext(ctx).
		Table(table).
		Select(keyColumns).
		Find(&records).Error
	if err != nil {
		if db.IsMissingTable(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSchema, err,
				fmt.Sprintf("table %s does not exist; run the initialize step first", table))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading existing keys")
	}

	keys := make(map[string]struct{}, len(records))
	for _, record := range records {
		parts := make([]any, 0, len(keyColumns))
		for _, col := range keyColumns {
			parts = append(parts, record[col])
		}
		keys[normalizeKey(parts)] = struct{}{}
	}
	return keys, nil
}

func pickKeyValues(names []string, values []any, keyColumns []string) ([]any, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	keyValues := make([]any, 0, len(keyColumns))
	for _, col := range keyColumns {
		i, ok := index[col]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("key column %s not present in row", col))
		}
		keyValues = append(keyValues, values[i])
	}
	return keyValues, nil
}

func updateRow(tx *gorm.DB, table string, names []string, values []any, keyColumns []string, keyValues []any) error {
	keySet := make(map[string]struct{}, len(keyColumns))
	for _, col := range keyColumns {
		keySet[col] = struct{}{}
	}

	var (
		assignments []string
		args        []any
	)
	for i, name := range names {
		if _, isKey := keySet[name]; isKey {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = ?", name))
		args = append(args, values[i])
	}
	if len(assignments) == 0 {
		// Every column is part of the key; nothing to update.
		return nil
	}

	conditions := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		conditions[i] = fmt.Sprintf("%s = ?", col)
		args = append(args, keyValues[i])
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table, strings.Join(assignments, ", "), strings.Join(conditions, " AND "))
	return tx.Exec(query, args...).Error
}

func insertRow(tx *gorm.DB, table string, names []string, values []any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), placeholders)
	return tx.Exec(query, values...).Error
}

// normalizeKey coerces every key part to its string form before joining,
// so heterogeneous key types (date objects vs date strings) compare equal.
// Values are not trimmed: the raw key values are also what the update
// statement matches on.
func normalizeKey(parts []any) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = fmt.Sprint(part)
	}
	return strings.Join(normalized, "\x1f")
}

func validIdentifier(name string) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "empty identifier")
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid identifier %q", name))
	}
	return nil
}
