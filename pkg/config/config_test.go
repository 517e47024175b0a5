package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreDriverBadger, cfg.Store.Driver)
	assert.Equal(t, "portal_", cfg.Store.KeyPrefix)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, 75, cfg.Attendance.RiskThreshold)
	assert.Equal(t, 10, cfg.Attendance.RecentLimit)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "Redis")
	v.Set("ATTENDANCE_RISK_THRESHOLD", 0)
	v.Set("DASHBOARD_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := fromViper(v)
	assert.Equal(t, StoreDriverRedis, cfg.Store.Driver)
	assert.Equal(t, 75, cfg.Attendance.RiskThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
