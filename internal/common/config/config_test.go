package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "care", Password: "secret", Database: "iotcare"}
	assert.Equal(t, "host=db port=5433 user=care password=secret dbname=iotcare sslmode=disable", cfg.GetDSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.GetDSN(), "sslmode=require")
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "care")
	t.Setenv("DB_MAX_CONNS", "40")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres"}
	cfg.LoadFromEnv("DB")

	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "care", cfg.Database)
	assert.Equal(t, 40, cfg.MaxConns)
}

func TestMQTTConfig_LoadFromEnv_IgnoresInvalidQoS(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_QOS", "7")

	cfg := MQTTConfig{QoS: 1}
	cfg.LoadFromEnv("MQTT")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, byte(1), cfg.QoS)
}
