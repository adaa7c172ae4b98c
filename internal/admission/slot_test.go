package admission

import (
	"context"
	"testing"
	"time"

	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
)

func TestPublish_Success(t *testing.T) {
	svc, db := newTestService(t)

	host := seedUser(t, db, model.RoleHost)

	slot, err := svc.Publish(context.Background(), host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if slot.Status != model.SlotStatusAvailable {
		t.Fatalf("expected available, got %s", slot.Status)
	}
	if slot.HostID != host {
		t.Fatalf("slot owned by wrong host: %s", slot.HostID)
	}
}

func TestPublish_HostRoleRequired(t *testing.T) {
	svc, db := newTestService(t)

	guest := seedUser(t, db, model.RoleGuest)

	_, err := svc.Publish(context.Background(), guest, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour))
	if code := rejectionCode(t, err); code != outcome.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestPublish_InvalidRange(t *testing.T) {
	svc, db := newTestService(t)

	host := seedUser(t, db, model.RoleHost)

	_, err := svc.Publish(context.Background(), host, testNow.Add(3*time.Hour), testNow.Add(2*time.Hour))
	if code := rejectionCode(t, err); code != outcome.CodeInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", code)
	}

	_, err = svc.Publish(context.Background(), host, testNow.Add(2*time.Hour), testNow.Add(2*time.Hour))
	if code := rejectionCode(t, err); code != outcome.CodeInvalidRequest {
		t.Fatalf("expected invalid_request for empty range, got %s", code)
	}
}

func TestPublish_OverlapConflict(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	host := seedUser(t, db, model.RoleHost)
	other := seedUser(t, db, model.RoleHost)

	if _, err := svc.Publish(ctx, host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Overlapping interval for the same host is rejected.
	_, err := svc.Publish(ctx, host, testNow.Add(150*time.Minute), testNow.Add(210*time.Minute))
	if code := rejectionCode(t, err); code != outcome.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}

	// Half-open intervals: touching end-to-start is not an overlap.
	if _, err := svc.Publish(ctx, host, testNow.Add(3*time.Hour), testNow.Add(4*time.Hour)); err != nil {
		t.Fatalf("adjacent publish: %v", err)
	}

	// A different host may occupy the same interval.
	if _, err := svc.Publish(ctx, other, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour)); err != nil {
		t.Fatalf("other host publish: %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	svc, db := newTestService(t)

	host := seedUser(t, db, model.RoleHost)
	slotID := seedSlot(t, db, host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour), model.SlotStatusAvailable)

	slot, err := svc.Delete(context.Background(), host, slotID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if slot.Status != model.SlotStatusCancelled {
		t.Fatalf("expected cancelled, got %s", slot.Status)
	}
}

func TestDelete_BookedSlotConflict(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	host := seedUser(t, db, model.RoleHost)
	guest := seedUser(t, db, model.RoleGuest)
	slotID := seedSlot(t, db, host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour), model.SlotStatusAvailable)

	if _, err := svc.Book(ctx, guest, slotID); err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err := svc.Delete(ctx, host, slotID)
	if code := rejectionCode(t, err); code != outcome.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	svc, db := newTestService(t)

	host := seedUser(t, db, model.RoleHost)
	other := seedUser(t, db, model.RoleHost)
	slotID := seedSlot(t, db, host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour), model.SlotStatusAvailable)

	_, err := svc.Delete(context.Background(), other, slotID)
	if code := rejectionCode(t, err); code != outcome.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestDelete_AlreadyCancelled(t *testing.T) {
	svc, db := newTestService(t)

	host := seedUser(t, db, model.RoleHost)
	slotID := seedSlot(t, db, host, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour), model.SlotStatusCancelled)

	_, err := svc.Delete(context.Background(), host, slotID)
	if code := rejectionCode(t, err); code != outcome.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}
