package services

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthService struct {
	DB          *gorm.DB
	Environment string
	Domain      string
	startedAt   time.Time
}

func NewHealthService(db *gorm.DB, environment, domain string) *HealthService {
	return &HealthService{DB: db, Environment: environment, Domain: domain, startedAt: time.Now()}
}

// Ping checks the database connection.
func (s *HealthService) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// GetHealth handles GET /api/health.
func (s *HealthService) GetHealth(c *fiber.Ctx) error {
	status, database, code := "healthy", "connected", fiber.StatusOK
	if err := s.Ping(c.UserContext()); err != nil {
		status, database, code = "degraded", "unreachable", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"environment": s.Environment,
		"database":    database,
		"uptime":      time.Since(s.startedAt).Seconds(),
		"domain":      s.Domain,
	})
}
