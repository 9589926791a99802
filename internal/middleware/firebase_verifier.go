package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/pkg/firebase"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

// TokenVerifier is satisfied by *firebase.App.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebase.Claims, error)
}

// FirebaseVerifier verifies Firebase ID tokens and maps the Firebase UID to
// a local user, creating one on first sight.
type FirebaseVerifier struct {
	tokens TokenVerifier
	users  repositories.UserRepository
}

func NewFirebaseVerifier(tokens TokenVerifier, users repositories.UserRepository) *FirebaseVerifier {
	return &FirebaseVerifier{tokens: tokens, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	claims, err := v.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := v.users.GetUserByFirebaseUID(ctx, claims.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = v.provision(ctx, claims)
	}
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: user.ID, IsAdmin: user.IsAdmin || claims.IsAdmin}, nil
}

func (v *FirebaseVerifier) provision(ctx context.Context, claims *firebase.Claims) (*models.User, error) {
	uid := claims.UID
	email := claims.Email
	if email == "" {
		email = uid + "@users.firebase.local"
	}
	user := &models.User{
		Username:    "fb_" + uid,
		DisplayName: claims.Name,
		Email:       email,
		AvatarURL:   claims.Picture,
		FirebaseUID: &uid,
	}
	if err := v.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Another request provisioned the same user first.
			return v.users.GetUserByFirebaseUID(ctx, uid)
		}
		return nil, err
	}

	l := logger.Ctx(ctx)
	l.Info().Uint(logger.FieldUserID, user.ID).Msg("provisioned user from firebase token")
	return user, nil
}
