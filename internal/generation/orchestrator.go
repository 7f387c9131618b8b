// Package generation coordinates a paid AI generation end to end: load
// the profile, settle the entitlement, call the model, parse, persist.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/StudyForge-io/studyforge/internal/ai"
	"github.com/StudyForge-io/studyforge/internal/entitlement"
	"github.com/StudyForge-io/studyforge/internal/models"
)

const (
	// maxPromptContent caps how much source text is sent to the model.
	maxPromptContent = 15000
	// maxStoredContent caps the excerpt persisted alongside the material.
	maxStoredContent = 5000
)

var (
	// ErrProfileUnavailable means the user's profile could not be loaded,
	// so the entitlement cannot be settled.
	ErrProfileUnavailable = errors.New("user profile unavailable")
	// ErrEntitlementDenied means the user has no subscription and no
	// credits, or lost the debit race to a concurrent request.
	ErrEntitlementDenied = errors.New("no credits remaining")
	// ErrMalformedGeneration means the model's output contained no
	// parseable study-materials object.
	ErrMalformedGeneration = errors.New("failed to parse generated content")
	// ErrPersistFailure means the generated bundle could not be saved.
	ErrPersistFailure = errors.New("failed to save generated materials")
)

// ProfileStore loads users and settles credit debits.
type ProfileStore interface {
	GetUserByID(id string) (*models.User, error)
	DebitFreeCredit(userID string) (bool, error)
}

// MaterialStore persists generation output.
type MaterialStore interface {
	SaveGeneratedMaterials(materialID, userID string, out *models.GeneratedMaterials, extractedContent string) error
	CreateHomeworkRequest(req *models.HomeworkRequest) error
}

// Generator produces raw assistant text for a prompt pair.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Result is a successful generation plus the caller-facing balance.
type Result struct {
	Materials        *models.GeneratedMaterials
	CreditsRemaining models.CreditsRemaining
}

// Orchestrator runs the generation workflow.
type Orchestrator struct {
	profiles  ProfileStore
	materials MaterialStore
	generator Generator
}

// NewOrchestrator wires the stores and the generator together.
func NewOrchestrator(profiles ProfileStore, materials MaterialStore, generator Generator) *Orchestrator {
	return &Orchestrator{
		profiles:  profiles,
		materials: materials,
		generator: generator,
	}
}

// Generate produces the full study-materials bundle for one source text
// and saves it onto the material row owned by the user.
//
// The credit debit happens before the model call, so a generation that
// later fails still consumes the credit. Subscribers are never debited.
func (o *Orchestrator) Generate(ctx context.Context, userID, content, materialID string) (*Result, error) {
	user, err := o.profiles.GetUserByID(userID)
	if err != nil || user == nil {
		log.Printf("[GENERATE] Profile fetch failed for user %s: %v", userID, err)
		return nil, ErrProfileUnavailable
	}

	decision := entitlement.Evaluate(user)
	if !decision.Granted {
		return nil, ErrEntitlementDenied
	}

	if decision.Source == entitlement.SourceCredit {
		debited, err := o.profiles.DebitFreeCredit(userID)
		if err != nil {
			log.Printf("[GENERATE] Credit debit failed for user %s: %v", userID, err)
			return nil, ErrProfileUnavailable
		}
		if !debited {
			// A concurrent request spent the last credit first.
			return nil, ErrEntitlementDenied
		}
	}

	log.Printf("[GENERATE] Generating study materials for user %s, material %s", userID, materialID)

	userPrompt := fmt.Sprintf("Generate comprehensive study materials from this content:\n\n%s", truncate(content, maxPromptContent))
	raw, err := o.generator.Complete(ctx, ai.StudyMaterialsSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	materials, err := parseMaterials(raw)
	if err != nil {
		log.Printf("[GENERATE] Failed to parse model output: %v", err)
		return nil, ErrMalformedGeneration
	}

	if err := o.materials.SaveGeneratedMaterials(materialID, userID, materials, truncate(content, maxStoredContent)); err != nil {
		log.Printf("[GENERATE] Failed to save materials for %s: %v", materialID, err)
		return nil, ErrPersistFailure
	}

	log.Printf("[GENERATE] Saved study materials for material %s", materialID)

	return &Result{
		Materials:        materials,
		CreditsRemaining: remainingCredits(user, decision),
	}, nil
}

// Homework answers a tutoring question and logs the exchange. Unlike
// Generate it spends nothing: an active subscription or a positive
// balance is required but no credit is consumed.
func (o *Orchestrator) Homework(ctx context.Context, userID, question string) (*models.HomeworkAnswer, error) {
	user, err := o.profiles.GetUserByID(userID)
	if err != nil || user == nil {
		log.Printf("[HOMEWORK] Profile fetch failed for user %s: %v", userID, err)
		return nil, ErrProfileUnavailable
	}

	if decision := entitlement.Evaluate(user); !decision.Granted {
		return nil, ErrEntitlementDenied
	}

	log.Printf("[HOMEWORK] Processing homework help for user %s", userID)

	raw, err := o.generator.Complete(ctx, ai.HomeworkTutorSystemPrompt, question)
	if err != nil {
		return nil, err
	}

	answer := parseHomework(raw)

	record := &models.HomeworkRequest{
		UserID:   userID,
		Question: question,
		Response: answer,
	}
	if err := o.materials.CreateHomeworkRequest(record); err != nil {
		// The answer is still good; losing the log entry is not fatal.
		log.Printf("[HOMEWORK] Failed to record request for user %s: %v", userID, err)
	}

	return answer, nil
}

func parseMaterials(raw string) (*models.GeneratedMaterials, error) {
	obj, ok := ai.ExtractJSONObject(raw)
	if !ok {
		return nil, errors.New("no JSON object in model output")
	}

	var materials models.GeneratedMaterials
	if err := json.Unmarshal([]byte(obj), &materials); err != nil {
		return nil, fmt.Errorf("invalid study materials JSON: %v", err)
	}
	return &materials, nil
}

// parseHomework never fails: when the model skips the JSON contract, the
// raw text becomes a single reasoning step with stock framing.
func parseHomework(raw string) *models.HomeworkAnswer {
	if obj, ok := ai.ExtractJSONObject(raw); ok {
		var answer models.HomeworkAnswer
		if err := json.Unmarshal([]byte(obj), &answer); err == nil {
			return &answer
		}
	}
	return &models.HomeworkAnswer{
		Reasoning:        []string{raw},
		Explanation:      "See the reasoning steps above for a detailed explanation.",
		PracticeQuestion: "Try applying the same method to a similar problem.",
	}
}

// remainingCredits reports the balance as the caller will see it after
// this request: unlimited for subscribers, otherwise the pre-debit count
// minus the credit just spent.
func remainingCredits(user *models.User, decision entitlement.Decision) models.CreditsRemaining {
	if decision.Source == entitlement.SourceSubscription {
		return models.CreditsRemaining{Unlimited: true}
	}
	return models.CreditsRemaining{Count: user.FreeCredits - 1}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
