package migration

import (
	challengedomain "github.com/depictapp/depict/internal/challenge/domain"
	"github.com/depictapp/depict/internal/config"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	signupdomain "github.com/depictapp/depict/internal/signup/domain"
	"github.com/depictapp/depict/internal/seed"
	dbpkg "github.com/depictapp/depict/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if dbpkg.IsPostgres(conn) {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite has no versioned migration driver here; the schema
			// is small enough for gorm to derive it.
			if err := conn.AutoMigrate(
				&signupdomain.User{},
				&creditdomain.Transaction{},
				&paymentdomain.Record{},
				&challengedomain.Challenge{},
				&generationdomain.Attempt{},
			); err != nil {
				return err
			}
		}

		if cfg.Environment != "production" {
			return seed.EnsureSampleChallenge(conn)
		}
		return nil
	}),
)
