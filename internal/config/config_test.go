package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemoMode(t *testing.T) {
	cases := []struct {
		name     string
		database string
		redis    string
		want     bool
	}{
		{"both configured", "postgres://app:secret@db:5432/linka", "redis://cache:6379/0", false},
		{"database missing", "", "redis://cache:6379/0", true},
		{"redis missing", "postgres://app:secret@db:5432/linka", "", true},
		{"both missing", "", "", true},
		{"placeholder database", "your-database-url-here", "redis://cache:6379/0", true},
		{"placeholder literal", "changeme", "redis://cache:6379/0", true},
		{"placeholder is case-insensitive", "CHANGEME", "redis://cache:6379/0", true},
		{"whitespace only", "   ", "redis://cache:6379/0", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{URL: tc.database},
				Redis:    RedisConfig{URL: tc.redis},
			}
			assert.Equal(t, tc.want, cfg.DemoMode())
		})
	}
}
