package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, catalog.All())

	reminder, ok := catalog.Get("verification-reminder")
	require.True(t, ok, "verification-reminder must exist, send-verification-reminders depends on it")
	assert.NotEmpty(t, reminder.Subject)
	assert.True(t, strings.Contains(reminder.Body, "{{name}}"))
	assert.True(t, strings.Contains(reminder.Body, "{{teamName}}"))
}

func TestGetUnknownTemplate(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	_, ok := catalog.Get("does-not-exist")
	assert.False(t, ok)
}
