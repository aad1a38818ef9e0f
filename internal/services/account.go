package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nevalis/whispr-backend/internal/database"
	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/nevalis/whispr-backend/internal/timefmt"
	"github.com/nevalis/whispr-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
)

const minPasswordLength = 8

// SignUp registers a new account: a credential row in PostgreSQL and the
// profile document in MongoDB, written together. The profile starts online
// (the caller just signed up, they are here). Display name falls back to the
// email local-part. Returns the new profile and a session token.
func SignUp(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = utils.EmailLocalPart(email)
	}

	var existing string
	err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT email FROM credentials WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil, "", fmt.Errorf("%s: %w", email, ErrEmailInUse)
	}
	if err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("sign up: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("sign up: %w", err)
	}

	uid := uuid.New().String()
	_, err = database.PostgresDB.ExecContext(ctx,
		"INSERT INTO credentials (uid, email, password) VALUES ($1, $2, $3)",
		uid, email, hashed)
	if err != nil {
		return nil, "", fmt.Errorf("sign up: %w", err)
	}

	now := timefmt.ToMillis(time.Now())
	user := &models.User{
		UID:         uid,
		DisplayName: displayName,
		Email:       email,
		Status:      models.StatusOnline,
		LastSeen:    now,
		CreatedAt:   now,
	}
	if _, err := usersCol().InsertOne(ctx, user); err != nil {
		// Roll the credential row back so the email is not burned on a
		// half-created account.
		if _, delErr := database.PostgresDB.ExecContext(ctx,
			"DELETE FROM credentials WHERE uid = $1", uid); delErr != nil {
			log.Printf("sign up: credential rollback failed for %s: %v", uid, delErr)
		}
		return nil, "", mapStoreErr("sign up", err)
	}

	SetUserPresence(ctx, uid, models.StatusOnline)

	token, err := CreateSession(ctx, uid)
	if err != nil {
		return nil, "", fmt.Errorf("sign up: %w", err)
	}
	return user, token, nil
}

// SignIn verifies credentials, marks the user online (best-effort) and opens a
// fresh session. Wrong email and wrong password are indistinguishable to the
// caller.
func SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var uid, hashed string
	err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT uid, password FROM credentials WHERE email = $1", email).Scan(&uid, &hashed)
	if err == sql.ErrNoRows {
		return nil, "", ErrInvalidCredential
	}
	if err != nil {
		return nil, "", fmt.Errorf("sign in: %w", err)
	}

	ok, err := utils.VerifyPassword(password, hashed)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredential
	}

	// Presence is cosmetic: the sign-in proceeds even if these writes fail.
	SetUserPresence(ctx, uid, models.StatusOnline)

	user, err := GetUser(ctx, uid)
	if err != nil {
		// A principal without a profile document is treated as unauthenticated.
		return nil, "", fmt.Errorf("sign in: %w", err)
	}

	token, err := CreateSession(ctx, uid)
	if err != nil {
		return nil, "", fmt.Errorf("sign in: %w", err)
	}
	return user, token, nil
}

// SignOut marks the user offline (best-effort) and invalidates the session.
// The session always dies, even when the presence write fails.
func SignOut(ctx context.Context, uid, sessionToken string) error {
	SetUserPresence(ctx, uid, models.StatusOffline)
	return InvalidateSession(ctx, sessionToken)
}

// CurrentUser resolves a session token to its profile document. A valid token
// whose profile document is missing counts as unauthenticated, the same as no
// token at all.
func CurrentUser(ctx context.Context, sessionToken string) (*models.User, bool) {
	uid, ok := ValidateSession(ctx, sessionToken)
	if !ok {
		return nil, false
	}
	user, err := GetUser(ctx, uid)
	if err != nil {
		return nil, false
	}
	return user, true
}

// UpdateAvatar sets the avatar URL on the profile document.
func UpdateAvatar(ctx context.Context, uid, avatarURL string) error {
	update := bson.M{"$set": bson.M{"avatar_url": avatarURL}}
	if _, err := usersCol().UpdateByID(ctx, uid, update); err != nil {
		return mapStoreErr("update avatar", err)
	}
	return nil
}
