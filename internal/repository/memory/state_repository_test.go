package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"itsm-triage-be/pkg/store"
)

func TestStateRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(time.Hour)

	got, err := repo.Get(ctx, "unknown")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get(unknown) = %+v, want nil miss", got)
	}

	if err := repo.Set(ctx, &store.Conversation{ID: "c1", State: store.StateWaitingForChoice}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err = repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.State != store.StateWaitingForChoice {
		t.Errorf("Get(c1) = %+v, want WAITING_FOR_CHOICE", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Set must stamp UpdatedAt")
	}

	if err := repo.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = repo.Get(ctx, "c1")
	if got != nil {
		t.Errorf("Get after Delete = %+v, want nil", got)
	}
}

func TestStateRepositoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(time.Hour)

	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			id := fmt.Sprintf("conv-%d", n%4)
			_ = repo.Set(ctx, &store.Conversation{ID: id, State: store.StateNew})
			_, _ = repo.Get(ctx, id)
		}(i)
	}
	for i := 0; i < 16; i++ {
		<-done
	}
}
