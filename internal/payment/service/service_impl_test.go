package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	paymentservice "github.com/depictapp/depict/internal/payment/service"
	dbpkg "github.com/depictapp/depict/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRecorder(t *testing.T) (paymentdomain.Recorder, *gorm.DB) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&paymentdomain.Record{}, &creditdomain.Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(11)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := paymentservice.NewService(paymentservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return svc, db
}

func TestRecordPaymentAppliesOnce(t *testing.T) {
	ctx := context.Background()
	svc, db := setupRecorder(t)

	event := paymentdomain.Event{
		Provider:          "stripe",
		ExternalPaymentID: "pi_123",
		SubjectID:         "sub_1",
		Credits:           100,
	}

	applied, err := svc.RecordPaymentIfNew(ctx, event)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !applied {
		t.Fatal("expected first delivery to apply")
	}

	// Replay of the same external payment id is a no-op.
	applied, err = svc.RecordPaymentIfNew(ctx, event)
	if err != nil {
		t.Fatalf("record replay: %v", err)
	}
	if applied {
		t.Fatal("expected replay to be skipped")
	}

	var records int64
	if err := db.Model(&paymentdomain.Record{}).Count(&records).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if records != 1 {
		t.Fatalf("expected 1 payment record, got %d", records)
	}

	var credits []creditdomain.Transaction
	if err := db.Find(&credits).Error; err != nil {
		t.Fatalf("load credits: %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("expected 1 credit transaction, got %d", len(credits))
	}
	if credits[0].Amount != 100 || credits[0].Kind != creditdomain.KindPurchase {
		t.Fatalf("unexpected credit row: %+v", credits[0])
	}
	if credits[0].RelatedOperationID == nil || *credits[0].RelatedOperationID != "pi_123" {
		t.Fatalf("expected credit linked to pi_123, got %+v", credits[0].RelatedOperationID)
	}
}

func TestRecordPaymentConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	svc, db := setupRecorder(t)

	event := paymentdomain.Event{
		Provider:          "dodo",
		ExternalPaymentID: "pay_42",
		SubjectID:         "sub_1",
		Credits:           50,
	}

	const deliveries = 8
	var wg sync.WaitGroup
	results := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := svc.RecordPaymentIfNew(ctx, event)
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			results <- applied
		}()
	}
	wg.Wait()
	close(results)

	appliedCount := 0
	for applied := range results {
		if applied {
			appliedCount++
		}
	}
	if appliedCount != 1 {
		t.Fatalf("expected exactly one delivery to apply, got %d", appliedCount)
	}

	var credits int64
	if err := db.Model(&creditdomain.Transaction{}).Count(&credits).Error; err != nil {
		t.Fatalf("count credits: %v", err)
	}
	if credits != 1 {
		t.Fatalf("expected 1 credit transaction, got %d", credits)
	}
}

func TestRecordPaymentRejectsInvalidEvents(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupRecorder(t)

	cases := []paymentdomain.Event{
		{Provider: "stripe", SubjectID: "sub_1", Credits: 10},
		{Provider: "stripe", ExternalPaymentID: "pi_1", Credits: 10},
		{Provider: "stripe", ExternalPaymentID: "pi_1", SubjectID: "sub_1", Credits: 0},
	}
	for _, event := range cases {
		if _, err := svc.RecordPaymentIfNew(ctx, event); !errors.Is(err, paymentdomain.ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent for %+v, got %v", event, err)
		}
	}
}
