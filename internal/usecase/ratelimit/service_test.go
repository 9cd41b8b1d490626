package ratelimit

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/semsearch/internal/domain"
)

type mockCounters struct {
	incrFn func(ctx context.Context, userID string) (int64, error)
}

func (m *mockCounters) IncrementAndGet(ctx context.Context, userID string) (int64, error) {
	return m.incrFn(ctx, userID)
}

func TestAllow_UnderThreshold(t *testing.T) {
	counts := map[string]int64{}
	svc := New(&mockCounters{incrFn: func(_ context.Context, userID string) (int64, error) {
		counts[userID]++
		return counts[userID], nil
	}}, 5)

	for i := 1; i <= 5; i++ {
		count, err := svc.Allow(context.Background(), "alice")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if count != int64(i) {
			t.Fatalf("request %d: expected count %d, got %d", i, i, count)
		}
	}
}

func TestAllow_ExceedsThreshold(t *testing.T) {
	counts := map[string]int64{}
	svc := New(&mockCounters{incrFn: func(_ context.Context, userID string) (int64, error) {
		counts[userID]++
		return counts[userID], nil
	}}, 5)

	for i := 1; i <= 5; i++ {
		if _, err := svc.Allow(context.Background(), "bob"); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	count, err := svc.Allow(context.Background(), "bob")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if count != 6 {
		t.Fatalf("expected count 6, got %d", count)
	}
}

func TestAllow_RejectedRequestsStillCount(t *testing.T) {
	counts := map[string]int64{}
	svc := New(&mockCounters{incrFn: func(_ context.Context, userID string) (int64, error) {
		counts[userID]++
		return counts[userID], nil
	}}, 2)

	for i := 0; i < 10; i++ {
		svc.Allow(context.Background(), "carol") //nolint:errcheck
	}

	if counts["carol"] != 10 {
		t.Fatalf("expected 10 increments, got %d", counts["carol"])
	}
}

func TestAllow_UsersAreIndependent(t *testing.T) {
	counts := map[string]int64{}
	svc := New(&mockCounters{incrFn: func(_ context.Context, userID string) (int64, error) {
		counts[userID]++
		return counts[userID], nil
	}}, 1)

	if _, err := svc.Allow(context.Background(), "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Allow(context.Background(), "dave"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited for dave, got %v", err)
	}

	// A fresh user is unaffected by dave's counter.
	if _, err := svc.Allow(context.Background(), "erin"); err != nil {
		t.Fatalf("unexpected error for erin: %v", err)
	}
}

func TestAllow_StoreError(t *testing.T) {
	svc := New(&mockCounters{incrFn: func(_ context.Context, _ string) (int64, error) {
		return 0, errors.New("connection refused")
	}}, 5)

	_, err := svc.Allow(context.Background(), "frank")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatal("store errors must not masquerade as rate limiting")
	}
}
