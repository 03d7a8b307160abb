package advertise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"默认", func(*Config) {}, false},
		{"TTL 为零", func(c *Config) { c.TTL = 0 }, true},
		{"重通告间隔为负", func(c *Config) { c.RedoInterval = -time.Second }, true},
		{"轮询周期为零", func(c *Config) { c.PollInterval = 0 }, true},
		{"轮询周期超过重通告间隔", func(c *Config) { c.PollInterval = c.RedoInterval + time.Second }, true},
		{"错误停顿为零", func(c *Config) { c.ErrorRetryPause = 0 }, true},
		{"瞬时停顿为零", func(c *Config) { c.TransientPause = 0 }, false},
		{"瞬时停顿为负", func(c *Config) { c.TransientPause = -time.Second }, true},
		{"限速为负", func(c *Config) { c.DispatchRate = -1 }, true},
		{"限速无突发容量", func(c *Config) { c.DispatchRate = 1; c.DispatchBurst = 0 }, true},
		{"不限速时突发容量无关", func(c *Config) { c.DispatchRate = 0; c.DispatchBurst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
