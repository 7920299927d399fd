package signup_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/depictapp/depict/internal/config"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	"github.com/depictapp/depict/internal/signup"
	signupdomain "github.com/depictapp/depict/internal/signup/domain"
	dbpkg "github.com/depictapp/depict/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSignup(t *testing.T) (signupdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&signupdomain.User{}, &creditdomain.Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(13)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := signup.NewService(signup.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{Credits: config.CreditsConfig{SignupBonus: 25}},
	})
	return svc, db
}

func TestEnsureSubjectGrantsBonusOnce(t *testing.T) {
	ctx := context.Background()
	svc, db := setupSignup(t)

	for i := 0; i < 3; i++ {
		if err := svc.EnsureSubject(ctx, "sub_1"); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}

	var bonuses []creditdomain.Transaction
	if err := db.Where("kind = ?", creditdomain.KindSignupBonus).Find(&bonuses).Error; err != nil {
		t.Fatalf("load bonuses: %v", err)
	}
	if len(bonuses) != 1 {
		t.Fatalf("expected one signup bonus, got %d", len(bonuses))
	}
	if bonuses[0].Amount != 25 {
		t.Fatalf("expected bonus of 25, got %v", bonuses[0].Amount)
	}
}

func TestEnsureSubjectConcurrentFirstRequests(t *testing.T) {
	ctx := context.Background()
	svc, db := setupSignup(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.EnsureSubject(ctx, "sub_1"); err != nil {
				t.Errorf("ensure: %v", err)
			}
		}()
	}
	wg.Wait()

	var bonuses int64
	if err := db.Model(&creditdomain.Transaction{}).
		Where("kind = ?", creditdomain.KindSignupBonus).
		Count(&bonuses).Error; err != nil {
		t.Fatalf("count bonuses: %v", err)
	}
	if bonuses != 1 {
		t.Fatalf("expected one signup bonus, got %d", bonuses)
	}
}

func TestEnsureSubjectRejectsEmptyID(t *testing.T) {
	svc, _ := setupSignup(t)
	if err := svc.EnsureSubject(context.Background(), "  "); !errors.Is(err, signupdomain.ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}
