package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/infra/server/router"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/engine/template"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRuleRepo struct {
	rules   []*rule.Rule
	listErr error
}

func (f *fakeRuleRepo) List(_ context.Context, filter *rule.Filter) ([]*rule.Rule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*rule.Rule
	for _, r := range f.rules {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Get(_ context.Context, id core.ID) (*rule.Rule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, rule.ErrNotFound
}

func (f *fakeRuleRepo) Create(_ context.Context, r *rule.Rule) error {
	f.rules = append(f.rules, r)
	return nil
}

func (f *fakeRuleRepo) Update(_ context.Context, r *rule.Rule) error {
	for i, existing := range f.rules {
		if existing.ID == r.ID {
			// Mirrors the store contract: classification never changes and
			// an absent id is ErrNotFound, not an insert.
			updated := *r
			updated.Classification = existing.Classification
			f.rules[i] = &updated
			return nil
		}
	}
	return rule.ErrNotFound
}

func (f *fakeRuleRepo) Deactivate(_ context.Context, id core.ID) error {
	for _, r := range f.rules {
		if r.ID == id {
			r.IsActive = false
			return nil
		}
	}
	return rule.ErrNotFound
}

func (f *fakeRuleRepo) Delete(_ context.Context, id core.ID) error {
	for i, r := range f.rules {
		if r.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return rule.ErrNotFound
}

type fakeTemplateRepo struct {
	templates []*template.Template
}

func (f *fakeTemplateRepo) List(_ context.Context, filter *template.Filter) ([]*template.Template, error) {
	var out []*template.Template
	for _, t := range f.templates {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTemplateRepo) Get(_ context.Context, id core.ID) (*template.Template, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, template.ErrNotFound
}

func (f *fakeTemplateRepo) Create(_ context.Context, t *template.Template) error {
	f.templates = append(f.templates, t)
	return nil
}

func (f *fakeTemplateRepo) Update(context.Context, *template.Template) error { return nil }
func (f *fakeTemplateRepo) Delete(context.Context, core.ID) error            { return nil }

func serve(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func activeRule() *rule.Rule {
	return &rule.Rule{
		ID:             core.MustNewID(),
		Classification: classification.SystemAccess,
		Assignment:     rule.Assignment{Type: rule.AssignRole, Role: "IT Support"},
		Timing:         rule.Timing{OffsetType: rule.BeforeStart, DaysOffset: 2, Priority: core.PriorityHigh},
		IsActive:       true,
	}
}

func TestRulesAPI(t *testing.T) {
	t.Run("Should list rules filtered by classification", func(t *testing.T) {
		repo := &fakeRuleRepo{rules: []*rule.Rule{activeRule()}}
		engine := router.New(repo, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodGet, "/api/v0/rules?classification=system_access", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "IT Support")
	})
	t.Run("Should reject an unknown classification filter", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodGet, "/api/v0/rules?classification=catering", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("Should create a valid rule", func(t *testing.T) {
		repo := &fakeRuleRepo{}
		engine := router.New(repo, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/rules", activeRule())
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, repo.rules, 1)
	})
	t.Run("Should reject an invalid rule body", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		bad := activeRule()
		bad.Assignment = rule.Assignment{Type: rule.AssignRole}
		rec := serve(t, engine, http.MethodPost, "/api/v0/rules", bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("Should update an existing rule", func(t *testing.T) {
		r := activeRule()
		repo := &fakeRuleRepo{rules: []*rule.Rule{r}}
		engine := router.New(repo, &fakeTemplateRepo{})
		changed := *r
		changed.Assignment = rule.Assignment{Type: rule.AssignRole, Role: "Service Desk"}
		rec := serve(t, engine, http.MethodPut, "/api/v0/rules/"+r.ID.String(), &changed)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Service Desk")
	})
	t.Run("Should return 404 when updating a missing rule", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		in := activeRule()
		rec := serve(t, engine, http.MethodPut, "/api/v0/rules/"+core.MustNewID().String(), in)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("Should keep the stored classification when an update tries to change it", func(t *testing.T) {
		r := activeRule()
		repo := &fakeRuleRepo{rules: []*rule.Rule{r}}
		engine := router.New(repo, &fakeTemplateRepo{})
		changed := *r
		changed.Classification = classification.Hardware
		rec := serve(t, engine, http.MethodPut, "/api/v0/rules/"+r.ID.String(), &changed)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data *rule.Rule `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, classification.SystemAccess, body.Data.Classification)
	})
	t.Run("Should return 404 for a missing rule", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodGet, "/api/v0/rules/"+core.MustNewID().String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("Should deactivate a rule in place", func(t *testing.T) {
		r := activeRule()
		repo := &fakeRuleRepo{rules: []*rule.Rule{r}}
		engine := router.New(repo, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/rules/"+r.ID.String()+"/deactivate", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, r.IsActive)
		assert.Len(t, repo.rules, 1, "deactivation must not delete")
	})
	t.Run("Should report store failures on reads as bad gateway", func(t *testing.T) {
		repo := &fakeRuleRepo{listErr: errors.New("store offline")}
		engine := router.New(repo, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodGet, "/api/v0/rules", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestResolveAPI(t *testing.T) {
	t.Run("Should resolve a batch and report provenance", func(t *testing.T) {
		matched := activeRule()
		engine := router.New(&fakeRuleRepo{rules: []*rule.Rule{matched}}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/resolve", map[string]any{
			"classifications": []string{"system_access", "hardware"},
			"process_type":    "onboarding",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data map[classification.Classification]*routing.ResolvedRouting `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		assert.True(t, body.Data[classification.SystemAccess].FromRule())
		assert.False(t, body.Data[classification.Hardware].FromRule())
	})
	t.Run("Should degrade to defaults when the rule store fails", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{listErr: errors.New("store offline")}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/resolve", map[string]any{
			"classifications": []string{"security"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Security")
	})
	t.Run("Should reject an unknown classification", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/resolve", map[string]any{
			"classifications": []string{"catering"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("Should reject an empty classification list", func(t *testing.T) {
		engine := router.New(&fakeRuleRepo{}, &fakeTemplateRepo{})
		rec := serve(t, engine, http.MethodPost, "/api/v0/resolve", map[string]any{
			"classifications": []string{},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTemplatesAPI(t *testing.T) {
	t.Run("Should list templates for a process type", func(t *testing.T) {
		repo := &fakeTemplateRepo{templates: []*template.Template{{
			ID:             core.MustNewID(),
			TaskCode:       "HW-001",
			Classification: classification.Hardware,
			Title:          "Order laptop",
			ProcessTypes:   []core.ProcessType{core.ProcessOnboarding},
			IsActive:       true,
		}}}
		engine := router.New(&fakeRuleRepo{}, repo)
		rec := serve(t, engine, http.MethodGet, "/api/v0/templates?process_type=onboarding", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Order laptop")

		rec = serve(t, engine, http.MethodGet, "/api/v0/templates?process_type=offboarding", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Order laptop")
	})
}
