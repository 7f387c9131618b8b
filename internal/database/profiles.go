package database

import (
	"database/sql"
	"time"

	"github.com/StudyForge-io/studyforge/internal/models"
)

// New accounts start with one free generation credit.
const signupFreeCredits = 1

const userColumns = "id, email, password, free_credits, subscription_status, subscription_plan, paypal_subscription_id, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var plan, subID sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.FreeCredits,
		&user.SubscriptionStatus, &plan, &subID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if plan.Valid {
		p := models.SubscriptionPlan(plan.String)
		user.SubscriptionPlan = &p
	}
	if subID.Valid {
		user.PayPalSubscriptionID = &subID.String
	}
	return user, nil
}

// CreateUser creates a new user with the signup credit allowance
func CreateUser(email, password string) (*models.User, error) {
	user := &models.User{
		Email:              email,
		Password:           password,
		FreeCredits:        signupFreeCredits,
		SubscriptionStatus: models.SubscriptionInactive,
	}

	if dbType == "postgres" {
		err := dbConn.QueryRow(
			"INSERT INTO users (email, password, free_credits, subscription_status) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at",
			user.Email, user.Password, user.FreeCredits, user.SubscriptionStatus,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, err
		}
	} else {
		now := time.Now()
		user.ID = GenerateID()
		user.CreatedAt = now
		user.UpdatedAt = now

		_, err := dbConn.Exec(
			"INSERT INTO users (id, email, password, free_credits, subscription_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			user.ID, user.Email, user.Password, user.FreeCredits, user.SubscriptionStatus, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func GetUserByEmail(email string) (*models.User, error) {
	var query string
	if dbType == "postgres" {
		query = "SELECT " + userColumns + " FROM users WHERE email = $1"
	} else {
		query = "SELECT " + userColumns + " FROM users WHERE email = ?"
	}
	return scanUser(dbConn.QueryRow(query, email))
}

// GetUserByID retrieves a user by their ID
func GetUserByID(id string) (*models.User, error) {
	var query string
	if dbType == "postgres" {
		query = "SELECT " + userColumns + " FROM users WHERE id = $1"
	} else {
		query = "SELECT " + userColumns + " FROM users WHERE id = ?"
	}
	return scanUser(dbConn.QueryRow(query, id))
}

// DebitFreeCredit atomically consumes one free credit. The conditional
// decrement is the whole point: two concurrent requests reading the same
// balance cannot both spend the last credit, because only one UPDATE will
// match the free_credits > 0 guard.
func DebitFreeCredit(userID string) (bool, error) {
	var query string
	if dbType == "postgres" {
		query = "UPDATE users SET free_credits = free_credits - 1, updated_at = NOW() WHERE id = $1 AND free_credits > 0"
	} else {
		query = "UPDATE users SET free_credits = free_credits - 1, updated_at = ? WHERE id = ? AND free_credits > 0"
	}

	var result sql.Result
	var err error
	if dbType == "postgres" {
		result, err = dbConn.Exec(query, userID)
	} else {
		result, err = dbConn.Exec(query, time.Now(), userID)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ActivateSubscription flips the user identified by email to an active
// subscription. The provider subscription ID is stored so a later
// cancellation event, which carries no email, can still find the row.
// Returns false if no user matches the email.
func ActivateSubscription(email string, plan models.SubscriptionPlan, paypalSubscriptionID string) (bool, error) {
	var query string
	if dbType == "postgres" {
		query = "UPDATE users SET subscription_status = $1, subscription_plan = $2, paypal_subscription_id = $3, updated_at = NOW() WHERE email = $4"
	} else {
		query = "UPDATE users SET subscription_status = ?, subscription_plan = ?, paypal_subscription_id = ?, updated_at = ? WHERE email = ?"
	}

	var result sql.Result
	var err error
	if dbType == "postgres" {
		result, err = dbConn.Exec(query, models.SubscriptionActive, plan, paypalSubscriptionID, email)
	} else {
		result, err = dbConn.Exec(query, models.SubscriptionActive, plan, paypalSubscriptionID, time.Now(), email)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DeactivateSubscription marks the subscription identified by the provider's
// subscription ID as inactive and clears the plan. Returns false if no user
// holds that subscription.
func DeactivateSubscription(paypalSubscriptionID string) (bool, error) {
	var query string
	if dbType == "postgres" {
		query = "UPDATE users SET subscription_status = $1, subscription_plan = NULL, updated_at = NOW() WHERE paypal_subscription_id = $2"
	} else {
		query = "UPDATE users SET subscription_status = ?, subscription_plan = NULL, updated_at = ? WHERE paypal_subscription_id = ?"
	}

	var result sql.Result
	var err error
	if dbType == "postgres" {
		result, err = dbConn.Exec(query, models.SubscriptionInactive, paypalSubscriptionID)
	} else {
		result, err = dbConn.Exec(query, models.SubscriptionInactive, time.Now(), paypalSubscriptionID)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
