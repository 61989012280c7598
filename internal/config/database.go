// internal/config/database.go
package config

import (
	"fmt"
	"time"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (m *MongoConfig) Timeout() time.Duration {
	if m.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.ConnectTimeout) * time.Second
}
