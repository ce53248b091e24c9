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
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/pkg/logger"
)

var ruleColumns = []string{
	"id",
	"classification",
	"process_types",
	"departments",
	"assignment",
	"approval",
	"offset_type",
	"days_offset",
	"priority",
	"sla",
	"notifications",
	"is_active",
	"sort_order",
	"description",
	"created_at",
	"updated_at",
}

// ruleDB mirrors the classification_rules table; nested policy records and
// scope lists are JSONB.
type ruleDB struct {
	ID               string    `db:"id"`
	Classification   string    `db:"classification"`
	ProcessTypesRaw  []byte    `db:"process_types"`
	DepartmentsRaw   []byte    `db:"departments"`
	AssignmentRaw    []byte    `db:"assignment"`
	ApprovalRaw      []byte    `db:"approval"`
	OffsetType       string    `db:"offset_type"`
	DaysOffset       int       `db:"days_offset"`
	Priority         string    `db:"priority"`
	SLARaw           []byte    `db:"sla"`
	NotificationsRaw []byte    `db:"notifications"`
	IsActive         bool      `db:"is_active"`
	SortOrder        int       `db:"sort_order"`
	Description      string    `db:"description"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *ruleDB) toRule(ctx context.Context) (*rule.Rule, error) {
	out := &rule.Rule{
		ID:             core.ID(r.ID),
		Classification: classification.Classification(r.Classification),
		Timing: rule.Timing{
			OffsetType: rule.OffsetType(r.OffsetType),
			DaysOffset: r.DaysOffset,
			Priority:   core.Priority(r.Priority),
		},
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	// Malformed scope lists decode as empty (match-all) instead of failing
	// the resolution; the incident is logged here at the adapter boundary.
	out.Scope.ProcessTypes = decodeScope[core.ProcessType](ctx, r.ID, "process_types", r.ProcessTypesRaw)
	out.Scope.Departments = decodeScope[string](ctx, r.ID, "departments", r.DepartmentsRaw)
	if err := unmarshalInto(r.AssignmentRaw, &out.Assignment); err != nil {
		return nil, fmt.Errorf("rule %s: decoding assignment: %w", r.ID, err)
	}
	if err := unmarshalInto(r.ApprovalRaw, &out.Approval); err != nil {
		return nil, fmt.Errorf("rule %s: decoding approval: %w", r.ID, err)
	}
	if len(r.SLARaw) > 0 && string(r.SLARaw) != "null" {
		out.SLA = &rule.SLA{}
		if err := json.Unmarshal(r.SLARaw, out.SLA); err != nil {
			return nil, fmt.Errorf("rule %s: decoding sla: %w", r.ID, err)
		}
	}
	if err := unmarshalInto(r.NotificationsRaw, &out.Notifications); err != nil {
		return nil, fmt.Errorf("rule %s: decoding notifications: %w", r.ID, err)
	}
	return out, nil
}

func decodeScope[T ~string](ctx context.Context, ruleID, field string, raw []byte) []T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.FromContext(ctx).Warn("malformed scope list, treating as unscoped",
			"rule_id", ruleID, "field", field, "error", err)
		return nil
	}
	return out
}

func unmarshalInto(raw []byte, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// RuleRepo implements rule.Repository backed by a pgx-compatible pool.
type RuleRepo struct {
	db DB
}

func NewRuleRepo(db DB) *RuleRepo {
	return &RuleRepo{db: db}
}

// List pushes classification and activity filters into SQL and applies scope
// matching in memory, where the JSONB lists are already decoded and empty
// lists mean match-all.
func (r *RuleRepo) List(ctx context.Context, filter *rule.Filter) ([]*rule.Rule, error) {
	sb := squirrel.Select(ruleColumns...).
		From("classification_rules").
		PlaceholderFormat(squirrel.Dollar).
		OrderBy("sort_order ASC", "id ASC")
	if filter != nil {
		if filter.Classification != nil {
			sb = sb.Where(squirrel.Eq{"classification": string(*filter.Classification)})
		}
		if filter.IsActive != nil {
			sb = sb.Where(squirrel.Eq{"is_active": *filter.IsActive})
		}
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building rule query: %w", err)
	}
	var rows []*ruleDB
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("scanning rules: %w", err)
	}
	var out []*rule.Rule
	for _, row := range rows {
		decoded, err := row.toRule(ctx)
		if err != nil {
			return nil, err
		}
		if filter.Matches(decoded) {
			out = append(out, decoded)
		}
	}
	return out, nil
}

func (r *RuleRepo) Get(ctx context.Context, id core.ID) (*rule.Rule, error) {
	sql, args, err := squirrel.Select(ruleColumns...).
		From("classification_rules").
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building rule query: %w", err)
	}
	var row ruleDB
	if err := pgxscan.Get(ctx, r.db, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rule.ErrNotFound
		}
		return nil, fmt.Errorf("scanning rule: %w", err)
	}
	return row.toRule(ctx)
}

func (r *RuleRepo) Create(ctx context.Context, in *rule.Rule) error {
	if err := in.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	sql, args, err := r.buildUpsert(in)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// Update rewrites an existing rule in place. Classification is immutable
// once a rule exists, so the statement leaves it out, and an absent id is
// ErrNotFound rather than an insert.
func (r *RuleRepo) Update(ctx context.Context, in *rule.Rule) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in.UpdatedAt = time.Now().UTC()
	enc, err := encodeRule(in)
	if err != nil {
		return err
	}
	sql, args, err := squirrel.Update("classification_rules").
		Set("process_types", enc.processTypes).
		Set("departments", enc.departments).
		Set("assignment", enc.assignment).
		Set("approval", enc.approval).
		Set("offset_type", string(in.Timing.OffsetType)).
		Set("days_offset", in.Timing.DaysOffset).
		Set("priority", string(in.Timing.Priority)).
		Set("sla", enc.sla).
		Set("notifications", enc.notifications).
		Set("is_active", in.IsActive).
		Set("sort_order", in.SortOrder).
		Set("description", in.Description).
		Set("updated_at", in.UpdatedAt).
		Where(squirrel.Eq{"id": in.ID.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building rule update: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rule.ErrNotFound
	}
	return nil
}

// encodedRule holds the JSONB column payloads of one rule.
type encodedRule struct {
	processTypes  []byte
	departments   []byte
	assignment    []byte
	approval      []byte
	sla           []byte
	notifications []byte
}

func encodeRule(in *rule.Rule) (*encodedRule, error) {
	processTypes, err := json.Marshal(in.Scope.ProcessTypes)
	if err != nil {
		return nil, fmt.Errorf("marshaling process types: %w", err)
	}
	departments, err := json.Marshal(in.Scope.Departments)
	if err != nil {
		return nil, fmt.Errorf("marshaling departments: %w", err)
	}
	assignment, err := json.Marshal(in.Assignment)
	if err != nil {
		return nil, fmt.Errorf("marshaling assignment: %w", err)
	}
	approval, err := json.Marshal(in.Approval)
	if err != nil {
		return nil, fmt.Errorf("marshaling approval: %w", err)
	}
	sla, err := json.Marshal(in.SLA)
	if err != nil {
		return nil, fmt.Errorf("marshaling sla: %w", err)
	}
	notifications, err := json.Marshal(in.Notifications)
	if err != nil {
		return nil, fmt.Errorf("marshaling notifications: %w", err)
	}
	return &encodedRule{
		processTypes:  processTypes,
		departments:   departments,
		assignment:    assignment,
		approval:      approval,
		sla:           sla,
		notifications: notifications,
	}, nil
}

func (r *RuleRepo) buildUpsert(in *rule.Rule) (string, []any, error) {
	enc, err := encodeRule(in)
	if err != nil {
		return "", nil, err
	}
	return squirrel.Insert("classification_rules").
		Columns(ruleColumns...).
		Values(
			in.ID.String(),
			string(in.Classification),
			enc.processTypes,
			enc.departments,
			enc.assignment,
			enc.approval,
			string(in.Timing.OffsetType),
			in.Timing.DaysOffset,
			string(in.Timing.Priority),
			enc.sla,
			enc.notifications,
			in.IsActive,
			in.SortOrder,
			in.Description,
			in.CreatedAt,
			in.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			process_types = EXCLUDED.process_types,
			departments = EXCLUDED.departments,
			assignment = EXCLUDED.assignment,
			approval = EXCLUDED.approval,
			offset_type = EXCLUDED.offset_type,
			days_offset = EXCLUDED.days_offset,
			priority = EXCLUDED.priority,
			sla = EXCLUDED.sla,
			notifications = EXCLUDED.notifications,
			is_active = EXCLUDED.is_active,
			sort_order = EXCLUDED.sort_order,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// Deactivate retires a rule in place, preserving history.
func (r *RuleRepo) Deactivate(ctx context.Context, id core.ID) error {
	sql, args, err := squirrel.Update("classification_rules").
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building deactivate query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deactivating rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rule.ErrNotFound
	}
	return nil
}

func (r *RuleRepo) Delete(ctx context.Context, id core.ID) error {
	sql, args, err := squirrel.Delete("classification_rules").
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rule.ErrNotFound
	}
	return nil
}
