package sql

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/dialect"
)

// Quote quotes an identifier for the given dialect.
func Quote(name, ident string) string {
	switch name {
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Expr is a raw SQL expression used as an assigned value, like CURRENT_TIMESTAMP.
type Expr string

type (
	assignment struct {
		column string
		value  any
	}
	predicate struct {
		column string
		value  any
	}
)

// UpdateBuilder builds UPDATE statements guarded by optimistic concurrency tokens.
//
//	n, err := sql.Update(dialect.Postgres, "orders").
//		Set("status", "shipped").
//		Where("id", 42).
//		CheckTimestamp("modified_at", loaded.ModifiedAt).
//		Exec(ctx, drv)
//
// With MySQL, the affected rows of an UPDATE are the changed rows unless the
// connection sets clientFoundRows=true. An update that matches the token but
// writes the values the row already holds then reads as a conflict.
type UpdateBuilder struct {
	dialect string
	table   string
	sets    []assignment
	where   []predicate
	tokens  []string
	stamps  []string
	errs    []error
}

// Update returns a builder for an UPDATE statement on the given table.
func Update(dialect, table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: dialect, table: table}
}

// Set assigns a value to the column.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	if column == "" {
		u.errs = append(u.errs, errors.New("dialect/sql: update: empty column name"))
		return u
	}
	u.sets = append(u.sets, assignment{column: column, value: v})
	return u
}

// Where adds an equality predicate. A nil value matches NULL.
func (u *UpdateBuilder) Where(column string, v any) *UpdateBuilder {
	u.where = append(u.where, predicate{column: column, value: v})
	return u
}

// CheckToken adds a predicate that matches only when the concurrency token
// column still holds its original value. If no row is affected, Exec
// reports a concurrency conflict.
func (u *UpdateBuilder) CheckToken(column string, original any) *UpdateBuilder {
	u.tokens = append(u.tokens, column)
	return u.Where(column, original)
}

// CheckTimestamp checks a timestamp concurrency token like CheckToken and,
// unless the column is explicitly Set, assigns it the current time of the
// database. Only MySQL refreshes such columns itself, with ON UPDATE.
func (u *UpdateBuilder) CheckTimestamp(column string, original any) *UpdateBuilder {
	u.stamps = append(u.stamps, column)
	return u.CheckToken(column, original)
}

// Now returns the expression that yields the current time of the dialect
// with the highest precision it can store.
func Now(name string) Expr {
	switch name {
	case dialect.Postgres:
		return Expr("clock_timestamp()")
	case dialect.MySQL:
		return Expr("CURRENT_TIMESTAMP(6)")
	default:
		return Expr("strftime('%Y-%m-%d %H:%M:%f', 'now')")
	}
}

// Tokens returns the columns checked as concurrency tokens.
func (u *UpdateBuilder) Tokens() []string {
	return u.tokens
}

// Query returns the statement and its arguments.
func (u *UpdateBuilder) Query() (string, []any, error) {
	if len(u.errs) > 0 {
		return "", nil, errors.Join(u.errs...)
	}
	sets := u.sets
	for _, c := range u.stamps {
		if !slices.ContainsFunc(sets, func(a assignment) bool { return a.column == c }) {
			sets = append(slices.Clip(sets), assignment{column: c, value: Now(u.dialect)})
		}
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("dialect/sql: update %s: no columns to set", u.table)
	}
	var (
		b    strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		if u.dialect == dialect.Postgres {
			return "$" + strconv.Itoa(len(args))
		}
		return "?"
	}
	b.WriteString("UPDATE ")
	b.WriteString(Quote(u.dialect, u.table))
	b.WriteString(" SET ")
	for i, s := range sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Quote(u.dialect, s.column))
		b.WriteString(" = ")
		switch v := s.value.(type) {
		case Expr:
			b.WriteString(string(v))
		case nil:
			b.WriteString("NULL")
		default:
			b.WriteString(arg(v))
		}
	}
	for i, p := range u.where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(Quote(u.dialect, p.column))
		if p.value == nil {
			b.WriteString(" IS NULL")
			continue
		}
		b.WriteString(" = ")
		b.WriteString(arg(p.value))
	}
	return b.String(), args, nil
}

// Exec executes the statement and returns the number of affected rows.
// It returns a *codefirst.ConcurrencyError if concurrency tokens were
// checked and no row matched.
func (u *UpdateBuilder) Exec(ctx context.Context, ex dialect.ExecQuerier) (int64, error) {
	query, args, err := u.Query()
	if err != nil {
		return 0, err
	}
	var res Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	if n == 0 && len(u.tokens) > 0 {
		return 0, codefirst.NewConcurrencyError(u.table, u.tokens...)
	}
	return n, nil
}
