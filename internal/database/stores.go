package database

import "github.com/StudyForge-io/studyforge/internal/models"

// ProfileStore adapts the package-level user queries to the interfaces
// consumed by the generation and billing packages, keeping those packages
// mockable in tests.
type ProfileStore struct{}

func Profiles() ProfileStore { return ProfileStore{} }

func (ProfileStore) GetUserByID(id string) (*models.User, error) {
	return GetUserByID(id)
}

func (ProfileStore) DebitFreeCredit(userID string) (bool, error) {
	return DebitFreeCredit(userID)
}

func (ProfileStore) ActivateSubscription(email string, plan models.SubscriptionPlan, paypalSubscriptionID string) (bool, error) {
	return ActivateSubscription(email, plan, paypalSubscriptionID)
}

func (ProfileStore) DeactivateSubscription(paypalSubscriptionID string) (bool, error) {
	return DeactivateSubscription(paypalSubscriptionID)
}

// MaterialStore adapts the material persistence functions the same way.
type MaterialStore struct{}

func Materials() MaterialStore { return MaterialStore{} }

func (MaterialStore) SaveGeneratedMaterials(materialID, userID string, out *models.GeneratedMaterials, extractedContent string) error {
	return SaveGeneratedMaterials(materialID, userID, out, extractedContent)
}

func (MaterialStore) CreateHomeworkRequest(req *models.HomeworkRequest) error {
	return CreateHomeworkRequest(req)
}
