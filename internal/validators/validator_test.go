package validators

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/models"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&models.CreatePostRequest{Content: "hello"}))

	err := v.Validate(&models.CreatePostRequest{})
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.True(t, strings.Contains(he.Message.(string), "Content is required"))

	err = v.Validate(&models.MarkReadRequest{IDs: []uint{1, 0}})
	require.Error(t, err)

	assert.NoError(t, v.Validate(&models.MarkReadRequest{}))
}
