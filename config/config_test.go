package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	c := &Config{DBDriver: "mysql", DBHost: "db", DBPort: "3306", DBUser: "app", DBPassword: "pw", DBName: "tuition"}
	assert.Equal(t, "app:pw@tcp(db:3306)/tuition?charset=utf8mb4&parseTime=True&loc=UTC", c.GetDSN())

	c.DBDriver = "postgres"
	c.DBPort = "5432"
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=tuition sslmode=disable TimeZone=UTC", c.GetDSN())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{}).Location())
	assert.Equal(t, time.Local, (&Config{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, "UTC", (&Config{Timezone: "UTC"}).Location().String())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("USE_SSM", "false")
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_EXPIRES_IN", "7d")
	t.Setenv("DB_DRIVER", "postgres")

	LoadConfig()

	assert.Equal(t, 7*24*time.Hour, AppConfig.JWTExpiresIn)
	assert.Equal(t, "5432", AppConfig.DBPort)
	assert.Equal(t, "1000.00", AppConfig.DefaultMonthlyFee)
	assert.Equal(t, 30, AppConfig.ManualFeeDueDays)
	assert.True(t, AppConfig.GenerateFeeOnRegister)
	assert.Equal(t, "0 6 1 * *", AppConfig.BillingCron)
}
