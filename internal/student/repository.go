package student

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"student-records/internal/db"
	"student-records/internal/metrics"

	"github.com/uptrace/bun"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrEmailTaken      = errors.New("student email already exists")
)

type Repository interface {
	Create(ctx context.Context, student *Student) error
	List(ctx context.Context) ([]Student, error)
	Search(ctx context.Context, term string) ([]Student, error)
	GetByID(ctx context.Context, id int) (*Student, error)
	Exists(ctx context.Context, id int) (bool, error)
	Update(ctx context.Context, id int, changes UpdateStudentRequest) error
	Delete(ctx context.Context, id int) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	if m == nil {
		m = metrics.NewMock()
	}
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, student *Student) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	err := r.db.NewSelect().
		Model(&students).
		OrderExpr("s.name ASC, s.id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return students, nil
}

// Search matches term as a case-insensitive substring of name or email.
// The caller passes an already trimmed, non-blank term.
func (r *repository) Search(ctx context.Context, term string) ([]Student, error) {
	start := time.Now()
	pattern := "%" + strings.ToLower(term) + "%"

	students := make([]Student, 0)
	err := r.db.NewSelect().
		Model(&students).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(s.name) LIKE ?", pattern).
				WhereOr("LOWER(s.email) LIKE ?", pattern)
		}).
		OrderExpr("s.name ASC, s.id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "search", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("s.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) Exists(ctx context.Context, id int) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Student)(nil)).
		Where("s.id = ?", id).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "exists", "students", time.Since(start), err)

	return exists, err
}

// Update writes only the non-nil fields of changes and bumps updated_at.
func (r *repository) Update(ctx context.Context, id int, changes UpdateStudentRequest) error {
	q := r.db.NewUpdate().Model((*Student)(nil))

	if changes.Name != nil {
		q = q.Set("name = ?", *changes.Name)
	}
	if changes.Email != nil {
		q = q.Set("email = ?", *changes.Email)
	}
	if changes.GraduationYear != nil {
		q = q.Set("graduation_year = ?", *changes.GraduationYear)
	}
	if changes.PhoneNumber != nil {
		q = q.Set("phone_number = ?", *changes.PhoneNumber)
	}
	if changes.GPA != nil {
		q = q.Set("gpa = ?", *changes.GPA)
	}

	start := time.Now()
	result, err := q.
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Student)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
