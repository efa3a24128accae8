package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/pkg/database"
)

// filterBuilder accumulates WHERE conditions with numbered placeholders.
type filterBuilder struct {
	conditions []string
	args       []interface{}
}

func (b *filterBuilder) add(format string, value interface{}) {
	n := len(b.args) + 1
	b.conditions = append(b.conditions, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", n)))
	b.args = append(b.args, value)
}

func (b *filterBuilder) where() string {
	if len(b.conditions) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if page > models.MaxPage {
		page = models.MaxPage
	}
	if size <= 0 || size > models.MaxPageSize {
		size = models.DefaultPageSize
	}
	return size, (page - 1) * size
}

func orderBy(allowed map[string]string, sortBy, sortOrder, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[fallback]
	}
	order := strings.ToUpper(sortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return column + " " + order
}

// setActive toggles the active flag for ids in table and returns rows changed.
func setActive(ctx context.Context, db *sqlx.DB, table string, ids []string, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`UPDATE %s SET active = $1, updated_at = $2 WHERE id = ANY($3)`, table)
	res, err := db.ExecContext(ctx, query, active, time.Now().UTC(), pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("set %s active: %w", table, err)
	}
	return res.RowsAffected()
}

// deleteUnenrolled removes rows of table by id inside a transaction, refusing
// when any enrollment still references them through column.
func deleteUnenrolled(ctx context.Context, db *sqlx.DB, table, column string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		var referenced int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM course_enrollments WHERE %s = ANY($1)`, column)
		if err := tx.GetContext(ctx, &referenced, countQuery, pq.Array(ids)); err != nil {
			return fmt.Errorf("count %s enrollments: %w", table, err)
		}
		if referenced > 0 {
			return ErrHasEnrollments
		}

		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, table), pq.Array(ids))
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrHasEnrollments
			}
			return fmt.Errorf("delete %s: %w", table, err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
