package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// Claims is the subset of a verified ID token the service relies on.
type Claims struct {
	UID     string
	Email   string
	Name    string
	Picture string
	IsAdmin bool
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	l := logger.L()
	l.Info().Msg("firebase app and auth client initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// VerifyIDToken checks an ID token and extracts its claims. Admin rights
// come from the "admin" custom claim.
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*Claims, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return ClaimsFromToken(token), nil
}

func ClaimsFromToken(token *auth.Token) *Claims {
	c := &Claims{UID: token.UID}
	if v, ok := token.Claims["email"].(string); ok {
		c.Email = v
	}
	if v, ok := token.Claims["name"].(string); ok {
		c.Name = v
	}
	if v, ok := token.Claims["picture"].(string); ok {
		c.Picture = v
	}
	if v, ok := token.Claims["admin"].(bool); ok {
		c.IsAdmin = v
	}
	return c
}
