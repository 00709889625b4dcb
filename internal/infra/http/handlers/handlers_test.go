package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/imageproxy"
	"github.com/xavierca1/studio-funnel/internal/infra/portfolio"
	"github.com/xavierca1/studio-funnel/internal/usecase"
)

// MockBriefUseCase
type MockBriefUseCase struct {
	mock.Mock
}

func (m *MockBriefUseCase) output(args mock.Arguments) (*usecase.BriefOutput, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.BriefOutput), args.Error(1)
}

func (m *MockBriefUseCase) Submit(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error) {
	return m.output(m.Called(ctx, in))
}

func (m *MockBriefUseCase) RequestEmail(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error) {
	return m.output(m.Called(ctx, in))
}

func (m *MockBriefUseCase) RequestDiscussion(ctx context.Context, in usecase.BriefInput) (*usecase.BriefOutput, error) {
	return m.output(m.Called(ctx, in))
}

func (m *MockBriefUseCase) Document(ctx context.Context, in usecase.BriefInput) (*usecase.BriefDocument, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.BriefDocument), args.Error(1)
}

// MockContactUseCase
type MockContactUseCase struct {
	mock.Mock
}

func (m *MockContactUseCase) Execute(ctx context.Context, in usecase.ContactInput) (*usecase.ContactOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ContactOutput), args.Error(1)
}

// MockCalculatorUseCase
type MockCalculatorUseCase struct {
	mock.Mock
}

func (m *MockCalculatorUseCase) Execute(ctx context.Context, in usecase.CalculatorInput) (*usecase.CalculatorOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CalculatorOutput), args.Error(1)
}

// MockPortfolioReader
type MockPortfolioReader struct {
	mock.Mock
}

func (m *MockPortfolioReader) List(ctx context.Context) ([]entity.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Project), args.Error(1)
}

func (m *MockPortfolioReader) Get(ctx context.Context, slug string) (*entity.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

// MockPortfolioSyncer
type MockPortfolioSyncer struct {
	mock.Mock
}

func (m *MockPortfolioSyncer) Sync(ctx context.Context) (*portfolio.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portfolio.SyncResult), args.Error(1)
}

func (m *MockPortfolioSyncer) Migrate(ctx context.Context) (*portfolio.MigrateResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portfolio.MigrateResult), args.Error(1)
}

// MockImageSource
type MockImageSource struct {
	mock.Mock
}

func (m *MockImageSource) Get(ctx context.Context, rawURL string) (*imageproxy.Entry, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imageproxy.Entry), args.Error(1)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLeadHandler_Submit_Success(t *testing.T) {
	uc := new(MockBriefUseCase)
	uc.On("Submit", mock.Anything, mock.MatchedBy(func(in usecase.BriefInput) bool {
		return in.FormType == "site-build" && in.BriefData["budget"].String() == "$10k"
	})).Return(&usecase.BriefOutput{Success: true, BriefID: "page-1", Temperature: entity.TemperatureWarm}, nil)

	rec := postJSON(t, NewLeadHandler(uc).Submit, "/brief-submission", map[string]any{
		"formType":  "site-build",
		"name":      "Ana",
		"email":     "ana@example.com",
		"briefData": map[string]any{"budget": "$10k", "ecommerce": true},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "page-1", body["briefId"])
	assert.NotContains(t, body, "warning")
	uc.AssertExpectations(t)
}

func TestLeadHandler_Honeypot(t *testing.T) {
	uc := new(MockBriefUseCase)
	uc.On("RequestEmail", mock.Anything, mock.Anything).Return(nil, &usecase.DomainError{Code: usecase.CodeBot, Message: "Invalid submission"})

	rec := postJSON(t, NewLeadHandler(uc).Email, "/brief-email", map[string]any{"honeypot": "x"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid submission"}`, rec.Body.String())
}

func TestLeadHandler_ValidationDetails(t *testing.T) {
	uc := new(MockBriefUseCase)
	uc.On("RequestDiscussion", mock.Anything, mock.Anything).Return(nil, &usecase.DomainError{
		Code:    usecase.CodeValidation,
		Message: "Invalid input",
		Details: []string{"email: email_invalid"},
	})

	rec := postJSON(t, NewLeadHandler(uc).Discussion, "/discussion-request", map[string]any{"email": "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid input","details":["email: email_invalid"]}`, rec.Body.String())
}

func TestLeadHandler_InvalidJSON(t *testing.T) {
	uc := new(MockBriefUseCase)
	req := httptest.NewRequest(http.MethodPost, "/brief-submission", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	NewLeadHandler(uc).Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	uc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestLeadHandler_TechnicalErrorHidesCause(t *testing.T) {
	uc := new(MockBriefUseCase)
	uc.On("Submit", mock.Anything, mock.Anything).Return(nil, &usecase.TechnicalError{
		Code: usecase.CodeStore, Message: "brief submission", Err: errors.New("notion token rejected"),
	})

	rec := postJSON(t, NewLeadHandler(uc).Submit, "/brief-submission", map[string]any{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "notion token")
	assert.Equal(t, usecase.CodeStore, decodeBody(t, rec)["code"])
}

func TestLeadHandler_Document(t *testing.T) {
	uc := new(MockBriefUseCase)
	uc.On("Document", mock.Anything, mock.Anything).Return(&usecase.BriefDocument{
		BriefID:     "page-1",
		Filename:    "brief-site-build-ana.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.3"),
	}, nil)

	rec := postJSON(t, NewLeadHandler(uc).Document, "/brief-pdf", map[string]any{"formType": "site-build"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="brief-site-build-ana.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "page-1", rec.Header().Get("X-Brief-Id"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestContactHandler_Warning(t *testing.T) {
	uc := new(MockContactUseCase)
	uc.On("Execute", mock.Anything, usecase.ContactInput{Name: "Ana", Email: "ana@example.com", Message: "Hello there!"}).
		Return(&usecase.ContactOutput{Success: true, Warning: "Your message was received."}, nil)

	rec := postJSON(t, NewContactHandler(uc).Handle, "/contact", map[string]any{
		"name": "Ana", "email": "ana@example.com", "message": "Hello there!",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"warning":"Your message was received."}`, rec.Body.String())
}

func TestContactHandler_DeliveryUnavailable(t *testing.T) {
	uc := new(MockContactUseCase)
	uc.On("Execute", mock.Anything, mock.Anything).Return(nil, &usecase.DomainError{
		Code: usecase.CodeDelivery, Message: "Please email us at hello@example.com.",
	})

	rec := postJSON(t, NewContactHandler(uc).Handle, "/contact", map[string]any{})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Please email us at hello@example.com.", decodeBody(t, rec)["error"])
}

func TestCalculatorHandler_ReturnsScore(t *testing.T) {
	uc := new(MockCalculatorUseCase)
	uc.On("Execute", mock.Anything, mock.Anything).Return(&usecase.CalculatorOutput{
		Success: true, LeadScore: 9, Temperature: entity.TemperatureWarm,
	}, nil)

	rec := postJSON(t, NewCalculatorHandler(uc).Handle, "/save-calculator-lead", map[string]any{
		"estimateData": map[string]any{"lines": []any{}, "total": 100},
		"leadData":     map[string]any{"name": "Ana", "email": "ana@example.com"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"leadScore":9,"temperature":"warm"}`, rec.Body.String())
}

func portfolioRouter(h *PortfolioHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/portfolio", h.List)
	r.Get("/portfolio/{slug}", h.Get)
	r.Post("/portfolio/refresh", h.Refresh)
	return r
}

func TestPortfolioHandler_Get(t *testing.T) {
	reader := new(MockPortfolioReader)
	reader.On("Get", mock.Anything, "capital-3").Return(&entity.Project{Slug: "capital-3", Title: "Capital 3"}, nil)
	reader.On("Get", mock.Anything, "missing").Return(nil, portfolio.ErrNotFound)
	router := portfolioRouter(NewPortfolioHandler(nil, reader))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio/capital-3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Capital 3", decodeBody(t, rec)["title"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortfolioHandler_RefreshFailure(t *testing.T) {
	syncer := new(MockPortfolioSyncer)
	syncer.On("Sync", mock.Anything).Return(nil, errors.New("notion: 401"))
	router := portfolioRouter(NewPortfolioHandler(syncer, new(MockPortfolioReader)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/refresh", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "SYNC_FAILED", decodeBody(t, rec)["code"])
}

func TestPortfolioHandler_RefreshReportsResult(t *testing.T) {
	syncer := new(MockPortfolioSyncer)
	syncer.On("Sync", mock.Anything).Return(&portfolio.SyncResult{
		Saved:   []string{"capital-3"},
		Removed: []string{"old-site"},
		Errors:  []portfolio.ItemError{{Slug: "capital-3", Error: "hero: 403"}},
	}, nil)
	router := portfolioRouter(NewPortfolioHandler(syncer, new(MockPortfolioReader)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/refresh", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"saved":["capital-3"],"removed":["old-site"],"errors":[{"slug":"capital-3","error":"hero: 403"}]}`, rec.Body.String())
}

func TestImageProxyHandler(t *testing.T) {
	images := new(MockImageSource)
	images.On("Get", mock.Anything, "https://bucket.s3.amazonaws.com/a.png").
		Return(&imageproxy.Entry{Data: []byte("png"), ContentType: "image/png"}, nil)
	images.On("Get", mock.Anything, "https://evil.example.com/a.png").Return(nil, imageproxy.ErrHostForbidden)
	h := NewImageProxyHandler(images)

	serve := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Handle(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := serve("/image-proxy?url=https%3A%2F%2Fbucket.s3.amazonaws.com%2Fa.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve("/image-proxy?url=https%3A%2F%2Fevil.example.com%2Fa.png").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/image-proxy").Code)
}

type stubConfigurable bool

func (s stubConfigurable) Configured() bool { return bool(s) }

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(nil, nil, stubConfigurable(true), stubConfigurable(false))
	rec := httptest.NewRecorder()

	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "configured", resp.Dependencies["notion"])
	assert.Equal(t, "not configured", resp.Dependencies["smtp"])
	assert.Equal(t, "not configured", resp.Dependencies["database"])
}
