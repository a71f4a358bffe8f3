package sessions

import (
	"context"
	"testing"
	"time"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sess.ID == "" || len(sess.ID) != 64 {
		t.Fatalf("expected 32-byte hex session id, got %q", sess.ID)
	}
	got, err := svc.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if got == nil || got.UserID != "user-1" {
		t.Fatalf("unexpected session: %v", got)
	}
	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got2, _ := svc.Validate(ctx, sess.ID)
	if got2 != nil {
		t.Fatalf("expected session removed")
	}
}

func TestValidate_ExpiredSessionIsRemoved(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "user-1", time.Minute)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	got, err := svc.Validate(ctx, sess.ID)
	if err != nil || got != nil {
		t.Fatalf("expected expired session to be invalid, got %v err=%v", got, err)
	}
	if stored, _ := repo.Get(ctx, sess.ID); stored != nil {
		t.Fatalf("expected expired session to be deleted")
	}
}
