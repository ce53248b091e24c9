package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/template"
)

var templateColumns = []string{
	"id",
	"task_code",
	"classification",
	"title",
	"description",
	"instructions",
	"process_types",
	"departments",
	"job_titles",
	"defaults",
	"is_mandatory",
	"depends_on_task_codes",
	"estimated_hours",
	"is_active",
	"created_at",
	"updated_at",
}

type templateDB struct {
	ID                    string    `db:"id"`
	TaskCode              string    `db:"task_code"`
	Classification        string    `db:"classification"`
	Title                 string    `db:"title"`
	Description           string    `db:"description"`
	Instructions          string    `db:"instructions"`
	ProcessTypesRaw       []byte    `db:"process_types"`
	DepartmentsRaw        []byte    `db:"departments"`
	JobTitlesRaw          []byte    `db:"job_titles"`
	DefaultsRaw           []byte    `db:"defaults"`
	IsMandatory           bool      `db:"is_mandatory"`
	DependsOnTaskCodesRaw []byte    `db:"depends_on_task_codes"`
	EstimatedHours        float64   `db:"estimated_hours"`
	IsActive              bool      `db:"is_active"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (t *templateDB) toTemplate(ctx context.Context) (*template.Template, error) {
	out := &template.Template{
		ID:             core.ID(t.ID),
		TaskCode:       t.TaskCode,
		Classification: classification.Classification(t.Classification),
		Title:          t.Title,
		Description:    t.Description,
		Instructions:   t.Instructions,
		IsMandatory:    t.IsMandatory,
		EstimatedHours: t.EstimatedHours,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	out.ProcessTypes = decodeScope[core.ProcessType](ctx, t.ID, "process_types", t.ProcessTypesRaw)
	out.Departments = decodeScope[string](ctx, t.ID, "departments", t.DepartmentsRaw)
	out.JobTitles = decodeScope[string](ctx, t.ID, "job_titles", t.JobTitlesRaw)
	out.DependsOnTaskCodes = decodeScope[string](ctx, t.ID, "depends_on_task_codes", t.DependsOnTaskCodesRaw)
	if err := unmarshalInto(t.DefaultsRaw, &out.Defaults); err != nil {
		return nil, fmt.Errorf("template %s: decoding defaults: %w", t.ID, err)
	}
	return out, nil
}

// TemplateRepo implements template.Repository backed by a pgx-compatible
// pool.
type TemplateRepo struct {
	db DB
}

func NewTemplateRepo(db DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

func (r *TemplateRepo) List(ctx context.Context, filter *template.Filter) ([]*template.Template, error) {
	sb := squirrel.Select(templateColumns...).
		From("task_templates").
		PlaceholderFormat(squirrel.Dollar).
		OrderBy("task_code ASC", "id ASC")
	if filter != nil && filter.IsActive != nil {
		sb = sb.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building template query: %w", err)
	}
	var rows []*templateDB
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("scanning templates: %w", err)
	}
	var out []*template.Template
	for _, row := range rows {
		decoded, err := row.toTemplate(ctx)
		if err != nil {
			return nil, err
		}
		if filter.Matches(decoded) {
			out = append(out, decoded)
		}
	}
	return out, nil
}

func (r *TemplateRepo) Get(ctx context.Context, id core.ID) (*template.Template, error) {
	sql, args, err := squirrel.Select(templateColumns...).
		From("task_templates").
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building template query: %w", err)
	}
	var row templateDB
	if err := pgxscan.Get(ctx, r.db, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, template.ErrNotFound
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}
	return row.toTemplate(ctx)
}

// Create inserts the template, overwriting an existing row with the same id
// so fixture imports stay idempotent.
func (r *TemplateRepo) Create(ctx context.Context, in *template.Template) error {
	if err := in.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	enc, err := encodeTemplate(in)
	if err != nil {
		return err
	}
	sql, args, err := squirrel.Insert("task_templates").
		Columns(templateColumns...).
		Values(
			in.ID.String(),
			in.TaskCode,
			string(in.Classification),
			in.Title,
			in.Description,
			in.Instructions,
			enc.processTypes,
			enc.departments,
			enc.jobTitles,
			enc.defaults,
			in.IsMandatory,
			enc.depends,
			in.EstimatedHours,
			in.IsActive,
			in.CreatedAt,
			in.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			task_code = EXCLUDED.task_code,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			instructions = EXCLUDED.instructions,
			process_types = EXCLUDED.process_types,
			departments = EXCLUDED.departments,
			job_titles = EXCLUDED.job_titles,
			defaults = EXCLUDED.defaults,
			is_mandatory = EXCLUDED.is_mandatory,
			depends_on_task_codes = EXCLUDED.depends_on_task_codes,
			estimated_hours = EXCLUDED.estimated_hours,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building template insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

// Update rewrites an existing template in place. Classification is immutable
// once a template exists; an absent id is ErrNotFound, never an insert.
func (r *TemplateRepo) Update(ctx context.Context, in *template.Template) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in.UpdatedAt = time.Now().UTC()
	enc, err := encodeTemplate(in)
	if err != nil {
		return err
	}
	sql, args, err := squirrel.Update("task_templates").
		Set("task_code", in.TaskCode).
		Set("title", in.Title).
		Set("description", in.Description).
		Set("instructions", in.Instructions).
		Set("process_types", enc.processTypes).
		Set("departments", enc.departments).
		Set("job_titles", enc.jobTitles).
		Set("defaults", enc.defaults).
		Set("is_mandatory", in.IsMandatory).
		Set("depends_on_task_codes", enc.depends).
		Set("estimated_hours", in.EstimatedHours).
		Set("is_active", in.IsActive).
		Set("updated_at", in.UpdatedAt).
		Where(squirrel.Eq{"id": in.ID.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building template update: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return template.ErrNotFound
	}
	return nil
}

// encodedTemplate holds the JSONB column payloads of one template.
type encodedTemplate struct {
	processTypes []byte
	departments  []byte
	jobTitles    []byte
	defaults     []byte
	depends      []byte
}

func encodeTemplate(in *template.Template) (*encodedTemplate, error) {
	processTypes, err := json.Marshal(in.ProcessTypes)
	if err != nil {
		return nil, fmt.Errorf("marshaling process types: %w", err)
	}
	departments, err := json.Marshal(in.Departments)
	if err != nil {
		return nil, fmt.Errorf("marshaling departments: %w", err)
	}
	jobTitles, err := json.Marshal(in.JobTitles)
	if err != nil {
		return nil, fmt.Errorf("marshaling job titles: %w", err)
	}
	defaults, err := json.Marshal(in.Defaults)
	if err != nil {
		return nil, fmt.Errorf("marshaling defaults: %w", err)
	}
	depends, err := json.Marshal(in.DependsOnTaskCodes)
	if err != nil {
		return nil, fmt.Errorf("marshaling dependencies: %w", err)
	}
	return &encodedTemplate{
		processTypes: processTypes,
		departments:  departments,
		jobTitles:    jobTitles,
		defaults:     defaults,
		depends:      depends,
	}, nil
}

func (r *TemplateRepo) Delete(ctx context.Context, id core.ID) error {
	sql, args, err := squirrel.Delete("task_templates").
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return template.ErrNotFound
	}
	return nil
}
