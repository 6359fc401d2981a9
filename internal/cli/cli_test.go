package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockinterview/internal/config"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestLockTTLCoversGatewayBudget(t *testing.T) {
	cfg := &config.Config{Gateway: config.GatewayConfig{Timeout: 30, MaxAttempts: 2}}
	assert.Equal(t, 90*time.Second, lockTTL(cfg))

	cfg.Gateway.MaxAttempts = 0
	assert.Equal(t, 60*time.Second, lockTTL(cfg))
}
