package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/pkg/clock"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

// DefaultComponentName is used when a component is created without a name.
const DefaultComponentName = "New Evaluative"

type collectionGateway interface {
	Load(ctx context.Context) (models.Collection, models.LoadResult, error)
	Save(ctx context.Context, collection models.Collection) error
	Decode(raw []byte) (models.Collection, error)
}

// CreateCourseRequest captures fields for adding a course.
type CreateCourseRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// RenameCourseRequest replaces a course name.
type RenameCourseRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateComponentRequest captures fields for adding a component. Every field is optional.
type CreateComponentRequest struct {
	Name     string   `json:"name" validate:"max=200"`
	Date     string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Max      float64  `json:"max" validate:"gte=0"`
	Obtained *float64 `json:"obtained" validate:"omitempty,gte=0"`
	Group    string   `json:"group" validate:"omitempty,component_group"`
}

// PlannerConfig carries the planner's environment.
type PlannerConfig struct {
	Location      *time.Location
	UpcomingLimit int
	Origin        string
	StoreDriver   string
	StoreKey      string
}

// PlannerStatus reports what the planner last loaded.
type PlannerStatus struct {
	Origin         string
	StoreDriver    string
	StoreKey       string
	Loaded         bool
	LastLoad       models.LoadResult
	ExternalReload time.Time
	Courses        int
	Today          models.Date
}

// Planner owns the in-memory collection. Every mutation edits a copy, persists it
// and only then swaps it in, so a failed save leaves the state untouched.
//
// Writes from other contexts replace the collection wholesale. An edit that races
// a foreign write loses to whichever save lands last.
type Planner struct {
	gateway   collectionGateway
	clock     clock.Clock
	cfg       PlannerConfig
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	newID     func() string

	mu             sync.RWMutex
	collection     models.Collection
	loaded         bool
	lastLoad       models.LoadResult
	externalReload time.Time
}

// NewPlanner constructs the state holder. The collection is loaded on first use.
func NewPlanner(gateway collectionGateway, clk clock.Clock, cfg PlannerConfig, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *Planner {
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.RegisterValidation("component_group", validComponentGroup); err != nil {
		// without the tag every CreateComponentRequest validation would panic
		panic(fmt.Sprintf("register component_group validation: %v", err))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		gateway:   gateway,
		clock:     clk,
		cfg:       cfg,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

func validComponentGroup(fl validator.FieldLevel) bool {
	_, ok := models.ParseGroup(fl.Field().String())
	return ok
}

// Today returns the current calendar date in the planner's timezone.
func (p *Planner) Today() models.Date {
	return models.DateOf(clock.Midnight(p.clock.Now(), p.cfg.Location))
}

// Load reads the collection from the store, replacing whatever is in memory.
func (p *Planner) Load(ctx context.Context) (models.LoadResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked(ctx)
}

func (p *Planner) loadLocked(ctx context.Context) (models.LoadResult, error) {
	collection, result, err := p.gateway.Load(ctx)
	if err != nil {
		return result, err
	}
	p.collection = collection
	p.loaded = true
	p.lastLoad = result
	if result.Status != models.LoadStatusOK {
		p.logger.Info("planner state initialised from defaults",
			zap.String("status", string(result.Status)),
			zap.Int("courses", len(collection.Courses)),
		)
	}
	return result, nil
}

// Reload forces a fresh read from the store.
func (p *Planner) Reload(ctx context.Context) (models.LoadResult, error) {
	return p.Load(ctx)
}

// ApplyExternal discards the in-memory collection after another context wrote
// the key. A carried value is decoded directly; otherwise the store is re-read.
func (p *Planner) ApplyExternal(ctx context.Context, change models.BlobChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.RecordExternalReload()
	p.externalReload = p.clock.Now()

	if change.Value != nil {
		collection, err := p.gateway.Decode(change.Value)
		if err == nil {
			p.collection = collection
			p.loaded = true
			p.lastLoad = models.LoadResult{Status: models.LoadStatusOK, LoadedAt: p.externalReload}
			p.logger.Debug("applied external planner state", zap.String("origin", change.Origin))
			return nil
		}
		p.logger.Warn("external planner state could not be decoded, re-reading store",
			zap.String("origin", change.Origin),
			zap.Error(err),
		)
	}

	_, err := p.loadLocked(ctx)
	return err
}

// snapshot returns the current collection, loading it first if needed. The
// returned value must not be modified; mutations always swap in a new collection.
func (p *Planner) snapshot(ctx context.Context) (models.Collection, error) {
	p.mu.RLock()
	if p.loaded {
		collection := p.collection
		p.mu.RUnlock()
		return collection, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		if _, err := p.loadLocked(ctx); err != nil {
			return models.Collection{}, err
		}
	}
	return p.collection, nil
}

// Snapshot returns a deep copy of the current collection.
func (p *Planner) Snapshot(ctx context.Context) (models.Collection, error) {
	collection, err := p.snapshot(ctx)
	if err != nil {
		return models.Collection{}, err
	}
	return collection.Clone(), nil
}

// Course resolves a course and its stats.
func (p *Planner) Course(ctx context.Context, id int) (models.Course, models.CourseStats, error) {
	collection, err := p.snapshot(ctx)
	if err != nil {
		return models.Course{}, models.CourseStats{}, err
	}
	course, ok := collection.Course(id)
	if !ok {
		return models.Course{}, models.CourseStats{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, ComputeStats(course, p.Today()), nil
}

// Overview aggregates every course.
func (p *Planner) Overview(ctx context.Context) (models.Overview, error) {
	collection, err := p.snapshot(ctx)
	if err != nil {
		return models.Overview{}, err
	}
	return ComputeOverview(collection, p.Today()), nil
}

// Upcoming lists upcoming and overdue components. limit <= 0 uses the configured default.
func (p *Planner) Upcoming(ctx context.Context, limit int) ([]models.UpcomingItem, error) {
	collection, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = p.cfg.UpcomingLimit
	}
	return ProjectUpcoming(collection, p.Today(), limit), nil
}

// CalendarMonth projects a month grid. A zero year or month means the current one.
func (p *Planner) CalendarMonth(ctx context.Context, year, month int) (models.CalendarMonth, error) {
	collection, err := p.snapshot(ctx)
	if err != nil {
		return models.CalendarMonth{}, err
	}
	today := p.Today()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	return ProjectCalendarMonth(collection, year, time.Month(month), today)
}

// Status reports the last load and where state lives.
func (p *Planner) Status() PlannerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PlannerStatus{
		Origin:         p.cfg.Origin,
		StoreDriver:    p.cfg.StoreDriver,
		StoreKey:       p.cfg.StoreKey,
		Loaded:         p.loaded,
		LastLoad:       p.lastLoad,
		ExternalReload: p.externalReload,
		Courses:        len(p.collection.Courses),
		Today:          p.Today(),
	}
}

// AddCourse appends a course with the next free id.
func (p *Planner) AddCourse(ctx context.Context, req CreateCourseRequest) (models.Course, error) {
	if err := p.validator.Struct(req); err != nil {
		return models.Course{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	var created models.Course
	_, err := p.mutate(ctx, "add_course", func(c models.Collection) (models.Collection, error) {
		next, course := c.AddCourse(strings.TrimSpace(req.Name))
		created = course
		return next, nil
	})
	if err != nil {
		return models.Course{}, err
	}
	return created, nil
}

// RemoveCourse deletes a course and its components.
func (p *Planner) RemoveCourse(ctx context.Context, id int) error {
	_, err := p.mutate(ctx, "remove_course", func(c models.Collection) (models.Collection, error) {
		return c.RemoveCourse(id)
	})
	return err
}

// SetCourseName renames a course.
func (p *Planner) SetCourseName(ctx context.Context, id int, req RenameCourseRequest) (models.Course, error) {
	if err := p.validator.Struct(req); err != nil {
		return models.Course{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course name")
	}
	return p.mutateCourse(ctx, "set_course_name", id, func(c models.Collection) (models.Collection, error) {
		return c.SetCourseName(id, strings.TrimSpace(req.Name))
	})
}

// AddComponent appends a component to a course and returns both.
func (p *Planner) AddComponent(ctx context.Context, courseID int, req CreateComponentRequest) (models.Course, models.Component, error) {
	if err := p.validator.Struct(req); err != nil {
		return models.Course{}, models.Component{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid component payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return models.Course{}, models.Component{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid component date")
	}
	group, _ := models.ParseGroup(req.Group)

	comp := models.Component{
		ID:       p.newID(),
		Name:     strings.TrimSpace(req.Name),
		Date:     date,
		Max:      req.Max,
		Obtained: req.Obtained,
		Group:    group,
	}
	if comp.Name == "" {
		comp.Name = DefaultComponentName
	}

	course, err := p.mutateCourse(ctx, "add_component", courseID, func(c models.Collection) (models.Collection, error) {
		return c.AddComponent(courseID, comp)
	})
	if err != nil {
		return models.Course{}, models.Component{}, err
	}
	created, _ := course.Component(comp.ID)
	return course, created, nil
}

// RemoveComponent deletes a component from its course.
func (p *Planner) RemoveComponent(ctx context.Context, courseID int, componentID string) (models.Course, error) {
	return p.mutateCourse(ctx, "remove_component", courseID, func(c models.Collection) (models.Collection, error) {
		return c.RemoveComponent(courseID, componentID)
	})
}

// ClearComponents removes every component of a course.
func (p *Planner) ClearComponents(ctx context.Context, courseID int) (models.Course, error) {
	return p.mutateCourse(ctx, "clear_components", courseID, func(c models.Collection) (models.Collection, error) {
		return c.ClearComponents(courseID)
	})
}

// UpdateComponentField coerces raw into one component field.
func (p *Planner) UpdateComponentField(ctx context.Context, courseID int, componentID string, field models.ComponentField, raw string) (models.Course, error) {
	return p.mutateCourse(ctx, "update_"+fieldLabel(field), courseID, func(c models.Collection) (models.Collection, error) {
		return c.UpdateComponentField(courseID, componentID, field, raw)
	})
}

func fieldLabel(field models.ComponentField) string {
	switch field {
	case models.FieldName, models.FieldDate, models.FieldMax, models.FieldObtained, models.FieldGroup:
		return string(field)
	default:
		return "unknown"
	}
}

func (p *Planner) mutateCourse(ctx context.Context, op string, courseID int, fn func(models.Collection) (models.Collection, error)) (models.Course, error) {
	next, err := p.mutate(ctx, op, fn)
	if err != nil {
		return models.Course{}, err
	}
	course, _ := next.Course(courseID)
	return course, nil
}

// Reset replaces the whole collection with count placeholder courses.
func (p *Planner) Reset(ctx context.Context, count int) (models.Collection, error) {
	next, err := p.mutate(ctx, "reset", func(prev models.Collection) (models.Collection, error) {
		seeded := models.SeedCollection(count)
		if prev.NextCourseID > seeded.NextCourseID {
			seeded.NextCourseID = prev.NextCourseID
		}
		return seeded, nil
	})
	if err != nil {
		return models.Collection{}, err
	}
	return next.Clone(), nil
}

// mutate runs edit, persist, swap under the write lock.
func (p *Planner) mutate(ctx context.Context, op string, fn func(models.Collection) (models.Collection, error)) (models.Collection, error) {
	if _, err := p.snapshot(ctx); err != nil {
		return models.Collection{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := fn(p.collection)
	if err != nil {
		return models.Collection{}, mutationError(err)
	}
	if err := p.gateway.Save(ctx, next); err != nil {
		p.logger.Error("failed to persist planner mutation", zap.String("op", op), zap.Error(err))
		return models.Collection{}, err
	}
	p.collection = next
	p.metrics.RecordMutation(op)
	return next, nil
}

func mutationError(err error) error {
	var fieldErr *models.FieldError
	var appErr *appErrors.Error
	switch {
	case errors.Is(err, models.ErrCourseNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	case errors.Is(err, models.ErrComponentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "component not found")
	case errors.Is(err, models.ErrDuplicateID):
		return appErrors.Clone(appErrors.ErrConflict, err.Error())
	case errors.As(err, &fieldErr):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fieldErr.Error())
	case errors.As(err, &appErr):
		return appErr
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply mutation")
	}
}
