package server

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/web"
	"github.com/stretchr/testify/assert"
)

func TestApp_DrainTimeoutCoversCollaboratorCall(t *testing.T) {
	app := &App{config: &config.Config{CollaboratorTimeout: 90 * time.Second}}

	d := app.drainTimeout()
	assert.Greater(t, d, app.config.CollaboratorTimeout)
	assert.Equal(t, 90*time.Second+web.ShutdownTimeout, d)
}
