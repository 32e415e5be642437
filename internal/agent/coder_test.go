package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"codecrew/internal/message"
)

func TestCoderImplementComponent(t *testing.T) {
	c := NewCoder(nil, zaptest.NewLogger(t))

	task := message.NewTask("implement_component", message.Payload{
		ComponentName: "auth_service",
		Specification: map[string]any{
			"responsibilities": []any{"authenticate users", "issue and validate sessions"},
			"interfaces":       []any{"token API"},
		},
	})
	result, err := c.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	code, ok := result.Artifacts["code"].(string)
	require.True(t, ok)
	assert.Contains(t, code, "type AuthService struct")
	assert.Contains(t, code, "func (c *AuthService) AuthenticateUsers() error")

	doc, ok := result.Artifacts["documentation"].(string)
	require.True(t, ok)
	assert.Contains(t, doc, "# auth_service")
	assert.Contains(t, doc, "- token API")
}

func TestCoderImplementInterface(t *testing.T) {
	c := NewCoder(nil, zaptest.NewLogger(t))

	task := message.NewTask("implement_interface", message.Payload{
		Components: []string{"frontend", "backend"},
	})
	result, err := c.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	code := result.Artifacts["code"].(string)
	assert.Contains(t, code, "type FrontendService interface")
	assert.Contains(t, code, "type BackendService interface")
}

func TestCoderRefactor(t *testing.T) {
	c := NewCoder(nil, zaptest.NewLogger(t))

	messy := "func a() {   \n\n\n\treturn\t\n}"
	task := message.NewTask("refactor_code", message.Payload{Code: messy})
	result, err := c.ExecuteTask(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	code := result.Artifacts["code"].(string)
	assert.NotContains(t, code, "   \n")
	assert.NotContains(t, code, "\n\n\n")

	notes := result.Artifacts["refactoring_notes"].([]string)
	assert.Contains(t, notes, "stripped trailing whitespace")
	assert.Contains(t, notes, "collapsed consecutive blank lines")
}

func TestCoderRefactorWithoutCode(t *testing.T) {
	c := NewCoder(nil, zaptest.NewLogger(t))
	result, err := c.ExecuteTask(context.Background(), message.NewTask("refactor_code", message.Payload{}))
	require.NoError(t, err)
	assert.Equal(t, message.StatusFailed, result.Status)
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"auth_service", "AuthService"},
		{"render user interface", "RenderUserInterface"},
		{"api-gateway", "ApiGateway"},
		{"", "Component"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exportedName(tt.in), tt.in)
	}
}
