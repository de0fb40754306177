// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/config"
)

type shutdownFlag struct {
	set bool
}

func (f *shutdownFlag) SetShutdown(shutdown bool) {
	f.set = shutdown
}

func TestShutdownMarksHealthBeforeDraining(t *testing.T) {
	flag := &shutdownFlag{}
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: flag,
	})

	require.NotNil(t, srv.Router())

	err := srv.Shutdown(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, flag.set)
}

func TestShutdownHonoursContextDuringDrain(t *testing.T) {
	srv := New(Config{ServerConfig: config.ServerConfig{Host: "127.0.0.1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Shutdown(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
