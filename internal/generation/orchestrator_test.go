package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/StudyForge-io/studyforge/internal/ai"
	"github.com/StudyForge-io/studyforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProfileStore is a mock implementation of the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileStore) DebitFreeCredit(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

// MockMaterialStore is a mock implementation of the MaterialStore interface
type MockMaterialStore struct {
	mock.Mock
}

func (m *MockMaterialStore) SaveGeneratedMaterials(materialID, userID string, out *models.GeneratedMaterials, extractedContent string) error {
	args := m.Called(materialID, userID, out, extractedContent)
	return args.Error(0)
}

func (m *MockMaterialStore) CreateHomeworkRequest(req *models.HomeworkRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

// MockGenerator is a mock implementation of the Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

const validMaterialsJSON = `{
  "quizzes": [{"id": 1, "type": "short_answer", "question": "Q?", "correct": null, "explanation": "E"}],
  "flashcards": [{"id": 1, "front": "F", "back": "B", "difficulty": "easy"}],
  "cheat_sheet": {"sections": [{"title": "T", "items": ["a"]}]},
  "predictions": [{"priority": "high", "topic": "T", "confidence": 85, "reason": "R", "subtopics": []}]
}`

func freeUser(credits int) *models.User {
	return &models.User{
		ID:                 "user-1",
		Email:              "student@example.com",
		FreeCredits:        credits,
		SubscriptionStatus: models.SubscriptionInactive,
	}
}

func subscribedUser() *models.User {
	plan := models.PlanPro
	return &models.User{
		ID:                 "user-1",
		Email:              "student@example.com",
		FreeCredits:        0,
		SubscriptionStatus: models.SubscriptionActive,
		SubscriptionPlan:   &plan,
	}
}

func TestGenerateWithFreeCredit(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(freeUser(1), nil)
	profiles.On("DebitFreeCredit", "user-1").Return(true, nil)
	generator.On("Complete", mock.Anything, ai.StudyMaterialsSystemPrompt, mock.Anything).Return(validMaterialsJSON, nil)
	materials.On("SaveGeneratedMaterials", "mat-1", "user-1", mock.Anything, "lecture notes").Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	result, err := o.Generate(context.Background(), "user-1", "lecture notes", "mat-1")
	require.NoError(t, err)
	require.NotNil(t, result.Materials)
	assert.False(t, result.CreditsRemaining.Unlimited)
	assert.Equal(t, 0, result.CreditsRemaining.Count)

	profiles.AssertExpectations(t)
	materials.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestGenerateSubscriberSkipsDebit(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(validMaterialsJSON, nil)
	materials.On("SaveGeneratedMaterials", "mat-1", "user-1", mock.Anything, mock.Anything).Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	result, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	require.NoError(t, err)
	assert.True(t, result.CreditsRemaining.Unlimited)

	profiles.AssertNotCalled(t, "DebitFreeCredit", mock.Anything)
}

func TestGenerateDeniedWhenExhausted(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(freeUser(0), nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ErrEntitlementDenied)

	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateDeniedOnLostDebitRace(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	// The balance read 1, but a concurrent request spent it first.
	profiles.On("GetUserByID", "user-1").Return(freeUser(1), nil)
	profiles.On("DebitFreeCredit", "user-1").Return(false, nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ErrEntitlementDenied)

	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateProfileUnavailable(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(nil, errors.New("connection refused"))

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ErrProfileUnavailable)
}

func TestGeneratePropagatesGatewayErrors(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", ai.ErrRateLimited)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestGenerateMalformedOutput(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("sorry, I cannot help with that", nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ErrMalformedGeneration)

	materials.AssertNotCalled(t, "SaveGeneratedMaterials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGeneratePersistFailure(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(validMaterialsJSON, nil)
	materials.On("SaveGeneratedMaterials", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no rows updated"))

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", "content", "mat-1")
	assert.ErrorIs(t, err, ErrPersistFailure)
}

func TestGenerateTruncatesContent(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	longContent := strings.Repeat("a", maxPromptContent+500)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.HasSuffix(prompt, strings.Repeat("a", maxPromptContent)) &&
			!strings.HasSuffix(prompt, strings.Repeat("a", maxPromptContent+1))
	})).Return(validMaterialsJSON, nil)
	materials.On("SaveGeneratedMaterials", "mat-1", "user-1", mock.Anything, strings.Repeat("a", maxStoredContent)).Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Generate(context.Background(), "user-1", longContent, "mat-1")
	require.NoError(t, err)

	generator.AssertExpectations(t)
	materials.AssertExpectations(t)
}

func TestHomeworkParsesStructuredAnswer(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	answerJSON := `{"reasoning":["step one","step two"],"explanation":"because","practiceQuestion":"try this"}`

	profiles.On("GetUserByID", "user-1").Return(freeUser(1), nil)
	generator.On("Complete", mock.Anything, ai.HomeworkTutorSystemPrompt, "what is 2+2?").Return(answerJSON, nil)
	materials.On("CreateHomeworkRequest", mock.MatchedBy(func(req *models.HomeworkRequest) bool {
		return req.UserID == "user-1" && req.Question == "what is 2+2?"
	})).Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	answer, err := o.Homework(context.Background(), "user-1", "what is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, []string{"step one", "step two"}, answer.Reasoning)
	assert.Equal(t, "because", answer.Explanation)
	assert.Equal(t, "try this", answer.PracticeQuestion)

	materials.AssertExpectations(t)
}

func TestHomeworkWrapsRawTextFallback(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	raw := "Start by isolating the variable, then divide both sides."

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(raw, nil)
	materials.On("CreateHomeworkRequest", mock.Anything).Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	answer, err := o.Homework(context.Background(), "user-1", "solve 3x=9")
	require.NoError(t, err)
	assert.Equal(t, []string{raw}, answer.Reasoning)
	assert.Equal(t, "See the reasoning steps above for a detailed explanation.", answer.Explanation)
}

func TestHomeworkDoesNotSpendCredits(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(freeUser(1), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(`{"reasoning":["s"],"explanation":"e","practiceQuestion":"p"}`, nil)
	materials.On("CreateHomeworkRequest", mock.Anything).Return(nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Homework(context.Background(), "user-1", "q")
	require.NoError(t, err)

	profiles.AssertNotCalled(t, "DebitFreeCredit", mock.Anything)
}

func TestHomeworkDeniedWithoutAccess(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(freeUser(0), nil)

	o := NewOrchestrator(profiles, materials, generator)
	_, err := o.Homework(context.Background(), "user-1", "q")
	assert.ErrorIs(t, err, ErrEntitlementDenied)
}

func TestHomeworkSurvivesLogFailure(t *testing.T) {
	profiles := new(MockProfileStore)
	materials := new(MockMaterialStore)
	generator := new(MockGenerator)

	profiles.On("GetUserByID", "user-1").Return(subscribedUser(), nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(`{"reasoning":["s"],"explanation":"e","practiceQuestion":"p"}`, nil)
	materials.On("CreateHomeworkRequest", mock.Anything).Return(errors.New("disk full"))

	o := NewOrchestrator(profiles, materials, generator)
	answer, err := o.Homework(context.Background(), "user-1", "q")
	require.NoError(t, err)
	assert.NotNil(t, answer)
}
