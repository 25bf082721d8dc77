package store

import (
	"context"
	"testing"
	"time"
)

func testDelivery(seq int64, id string) Delivery {
	return Delivery{
		Seq:        seq,
		DeliveryID: id,
		Action:     "opened",
		IssueID:    555001,
		ReceivedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload:    `{"action":"opened"}`,
	}
}

func TestAppendDelivery_Basic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.AppendDelivery(ctx, testDelivery(1, "d-abc"))
	if err != nil {
		t.Fatalf("AppendDelivery() failed: %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true for new delivery")
	}

	got, err := s.ReadDeliveries(ctx, 0)
	if err != nil {
		t.Fatalf("ReadDeliveries() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(deliveries) = %d, want 1", len(got))
	}
	if got[0].DeliveryID != "d-abc" || got[0].Action != "opened" {
		t.Errorf("delivery = %+v, want d-abc/opened", got[0])
	}
}

func TestAppendDelivery_DuplicateIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendDelivery(ctx, testDelivery(1, "d-dup")); err != nil {
		t.Fatalf("first AppendDelivery() failed: %v", err)
	}

	inserted, err := s.AppendDelivery(ctx, testDelivery(2, "d-dup"))
	if err != nil {
		t.Fatalf("duplicate AppendDelivery() failed: %v", err)
	}
	if inserted {
		t.Error("inserted = true for duplicate delivery id, want false")
	}

	got, err := s.ReadDeliveries(ctx, 0)
	if err != nil {
		t.Fatalf("ReadDeliveries() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(deliveries) = %d, want 1 after duplicate", len(got))
	}
}

func TestReadDeliveries_OrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 5; seq++ {
		d := testDelivery(seq, "d-"+string(rune('a'+seq)))
		if _, err := s.AppendDelivery(ctx, d); err != nil {
			t.Fatalf("AppendDelivery(%d) failed: %v", seq, err)
		}
	}

	got, err := s.ReadDeliveries(ctx, 3)
	if err != nil {
		t.Fatalf("ReadDeliveries() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(deliveries) = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Seq <= got[i-1].Seq {
			t.Errorf("deliveries out of seq order: %d then %d", got[i-1].Seq, got[i].Seq)
		}
	}
}

func TestReadDeliveries_EmptyLog(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ReadDeliveries(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadDeliveries() failed: %v", err)
	}
	if got == nil {
		t.Error("deliveries = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len(deliveries) = %d, want 0", len(got))
	}
}

func TestMaxDeliverySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxDeliverySeq(ctx)
	if err != nil {
		t.Fatalf("MaxDeliverySeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("seq = %d on empty log, want 0", seq)
	}

	if _, err := s.AppendDelivery(ctx, testDelivery(7, "d-seven")); err != nil {
		t.Fatalf("AppendDelivery() failed: %v", err)
	}

	seq, err = s.MaxDeliverySeq(ctx)
	if err != nil {
		t.Fatalf("MaxDeliverySeq() failed: %v", err)
	}
	if seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}
}
