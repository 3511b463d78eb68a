package database

import (
	"context"
	"errors"

	"linkup/internal/core/pagination"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	newestFirst = "created_at DESC, id DESC"
	oldestFirst = "created_at ASC, id ASC"
)

// baseRepository holds the gorm plumbing shared by every repository.
type baseRepository[T any] struct {
	db *gorm.DB
}

func (r baseRepository[T]) add(ctx context.Context, v *T) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r baseRepository[T]) update(ctx context.Context, v *T) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// remove deletes v by its primary key.
func (r baseRepository[T]) remove(ctx context.Context, v *T) (int64, error) {
	res := r.db.WithContext(ctx).Delete(v)
	return res.RowsAffected, res.Error
}

func (r baseRepository[T]) getByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.first(ctx, "", "id = ?", id)
}

// first returns (nil, nil) when no row matches.
func (r baseRepository[T]) first(ctx context.Context, order string, query interface{}, args ...interface{}) (*T, error) {
	var out T
	q := r.db.WithContext(ctx).Where(query, args...)
	if order != "" {
		q = q.Order(order)
	}
	err := q.Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r baseRepository[T]) find(ctx context.Context, order string, query interface{}, args ...interface{}) ([]*T, error) {
	var out []*T
	q := r.db.WithContext(ctx).Where(query, args...)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r baseRepository[T]) exists(ctx context.Context, query interface{}, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r baseRepository[T]) ids(ctx context.Context, query interface{}, args ...interface{}) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if err := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r baseRepository[T]) deleteWhere(ctx context.Context, query interface{}, args ...interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Where(query, args...).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (r baseRepository[T]) page(ctx context.Context, order string, p pagination.Params, query interface{}, args ...interface{}) ([]*T, int64, error) {
	q := r.db.WithContext(ctx).Model(new(T)).Where(query, args...).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*T, 0)
	if total == 0 {
		return items, 0, nil
	}
	if err := q.Order(order).Offset(p.Offset()).Limit(p.Limit()).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
