package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsFromToken(t *testing.T) {
	token := &auth.Token{
		UID: "uid-123",
		Claims: map[string]interface{}{
			"email": "ada@example.com",
			"name":  "Ada",
			"admin": true,
		},
	}

	c := ClaimsFromToken(token)
	assert.Equal(t, "uid-123", c.UID)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "Ada", c.Name)
	assert.True(t, c.IsAdmin)
}

func TestClaimsFromTokenIgnoresWrongTypes(t *testing.T) {
	c := ClaimsFromToken(&auth.Token{UID: "u", Claims: map[string]interface{}{"admin": "yes"}})
	assert.False(t, c.IsAdmin)
	assert.Empty(t, c.Email)
}

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	require.Error(t, err)

	_, err = InitFirebase(context.Background(), "/does/not/exist.json")
	require.Error(t, err)
}
