package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) CreateLead(ctx context.Context, lead *entity.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockLeadRepository) UpdateLead(ctx context.Context, id string, patch entity.LeadPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockLeadRepository) FindLead(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

// MockContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) CreateContact(ctx context.Context, msg *entity.ContactMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// MockCalculatorRepository
type MockCalculatorRepository struct {
	mock.Mock
}

func (m *MockCalculatorRepository) CreateCalculatorLead(ctx context.Context, lead *entity.CalculatorLead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

// MockRenderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) HTML(lead *entity.Lead) ([]byte, error) {
	args := m.Called(lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) PDF(lead *entity.Lead) ([]byte, error) {
	args := m.Called(lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockMailer) FallbackMessage() string {
	return m.Called().String(0)
}

func (m *MockMailer) SendContactNotification(msg *entity.ContactMessage) error {
	return m.Called(msg).Error(0)
}

func (m *MockMailer) SendBriefConfirmation(lead *entity.Lead, pdf []byte) error {
	return m.Called(lead, pdf).Error(0)
}

func (m *MockMailer) SendBriefAlert(lead *entity.Lead, pdf []byte) error {
	return m.Called(lead, pdf).Error(0)
}

func (m *MockMailer) SendDiscussionRequest(lead *entity.Lead) error {
	return m.Called(lead).Error(0)
}

func (m *MockMailer) SendDiscussionAck(lead *entity.Lead) error {
	return m.Called(lead).Error(0)
}

func (m *MockMailer) SendCalculatorAlert(lead *entity.CalculatorLead) error {
	return m.Called(lead).Error(0)
}

func newMailer(configured bool) *MockMailer {
	m := new(MockMailer)
	m.On("Configured").Return(configured).Maybe()
	m.On("FallbackMessage").Return("Please contact us at hello@example.com.").Maybe()
	return m
}

// MockJournal
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, e *entity.JournalEntry) error {
	return m.Called(ctx, e).Error(0)
}

// MockEvents
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishLeadEvent(ctx context.Context, e queue.LeadEvent) error {
	return m.Called(ctx, e).Error(0)
}
