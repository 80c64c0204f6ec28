package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"student-records/internal/apperror"
	"student-records/internal/events"
	"student-records/internal/metrics"
)

type Service interface {
	Create(ctx context.Context, req CreateStudentRequest) (*Student, error)
	List(ctx context.Context, opts ListOptions) ([]Student, error)
	GetByID(ctx context.Context, id int) (*Student, error)
	Update(ctx context.Context, id int, req UpdateStudentRequest) (*Student, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo      Repository
	validator *Validator
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(repo Repository, validator *Validator, publisher events.Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	if validator == nil {
		validator = NewValidator()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewMock()
	}
	return &service{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

func (s *service) Create(ctx context.Context, req CreateStudentRequest) (*Student, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}

	student := &Student{
		Name:           req.Name,
		Email:          req.Email,
		GraduationYear: req.GraduationYear,
		PhoneNumber:    req.PhoneNumber,
		GPA:            req.GPA,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperror.Conflict("Student email already exists")
		}
		return nil, apperror.Internal("Failed to create student", err)
	}

	created, err := s.repo.GetByID(ctx, student.ID)
	if err != nil {
		return nil, apperror.Internal("Failed to create student", err)
	}

	s.metrics.RecordStudentCreated(ctx)
	s.publish(ctx, events.New(events.StudentCreated, created.ID, created.Email))
	return created, nil
}

// List returns every student, or only those whose name or email contains
// opts.Search once trimmed. Both are ordered by name.
func (s *service) List(ctx context.Context, opts ListOptions) ([]Student, error) {
	term := strings.TrimSpace(opts.Search)
	if term == "" {
		students, err := s.repo.List(ctx)
		if err != nil {
			return nil, apperror.Internal("Failed to list students", err)
		}
		s.metrics.RecordStudentsListViewed(ctx)
		return students, nil
	}

	students, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, apperror.Internal("Failed to search students", err)
	}
	s.metrics.RecordStudentsSearched(ctx)
	return students, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return nil, apperror.NotFound("Student not found")
		}
		return nil, apperror.Internal("Failed to get student", err)
	}

	s.metrics.RecordStudentViewed(ctx)
	return student, nil
}

// Update checks existence before validating so a dead id reports 404 even
// when the payload is also invalid.
func (s *service) Update(ctx context.Context, id int, req UpdateStudentRequest) (*Student, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, apperror.Internal("Failed to update student", err)
	}
	if !exists {
		return nil, apperror.NotFound(fmt.Sprintf("Student with id %d does not exist", id))
	}

	if err := s.validator.ValidateUpdate(req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return nil, apperror.Conflict("Student email already exists")
		case errors.Is(err, ErrStudentNotFound):
			// deleted between the existence check and the write
			return nil, apperror.NotFound(fmt.Sprintf("Student with id %d does not exist", id))
		default:
			return nil, apperror.Internal("Failed to update student", err)
		}
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("Failed to update student", err)
	}

	s.metrics.RecordStudentUpdated(ctx)
	s.publish(ctx, events.New(events.StudentUpdated, updated.ID, updated.Email))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return apperror.NotFound("Student not found")
		}
		return apperror.Internal("Failed to delete student", err)
	}

	s.metrics.RecordStudentDeleted(ctx)
	s.publish(ctx, events.New(events.StudentDeleted, id, ""))
	return nil
}

// publish never fails the calling operation; the record is already stored.
func (s *service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish student event",
			"event_type", event.Type,
			"student_id", event.StudentID,
			"error", err,
		)
	}
}
