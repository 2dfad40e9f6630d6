package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFromStatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   Kind
	}{
		{500, KindTransient},
		{503, KindTransient},
		{599, KindTransient},
		{400, KindPermanent},
		{404, KindPermanent},
		{422, KindPermanent},
	}
	for _, tc := range cases {
		f := FromStatus("test.op", tc.status, errors.New("nope"))
		if f.Kind != tc.want {
			t.Fatalf("status %d classified as %v, want %v", tc.status, f.Kind, tc.want)
		}
		if f.Status != tc.status {
			t.Fatalf("status not carried: %d", f.Status)
		}
	}
}

func TestFromTransportCancellation(t *testing.T) {
	t.Parallel()

	if k := FromTransport("test.op", context.Canceled).Kind; k != KindCancelled {
		t.Fatalf("context.Canceled classified as %v", k)
	}
	if k := FromTransport("test.op", context.DeadlineExceeded).Kind; k != KindTransient {
		t.Fatalf("deadline exceeded classified as %v", k)
	}
	if k := FromTransport("test.op", errors.New("connection refused")).Kind; k != KindTransient {
		t.Fatalf("transport error classified as %v", k)
	}
}

func TestKindOfUnclassifiedIsPermanent(t *testing.T) {
	t.Parallel()

	if k := KindOf(errors.New("mystery")); k != KindPermanent {
		t.Fatalf("unclassified error classified as %v, want permanent", k)
	}
	if Retryable(errors.New("mystery")) {
		t.Fatal("unclassified errors must not be retryable")
	}
}

func TestKindOfUnwrapsThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := Transient("test.op", errors.New("flaky"))
	wrapped := fmt.Errorf("step failed: %w", inner)
	if k := KindOf(wrapped); k != KindTransient {
		t.Fatalf("wrapped fault classified as %v", k)
	}
	if !Retryable(wrapped) {
		t.Fatal("wrapped transient fault should be retryable")
	}
}

func TestItemIDCarriedThroughWrapping(t *testing.T) {
	t.Parallel()

	f := Permanent("crm.update", errors.New("bad field"))
	f.ItemID = "opp_002"
	wrapped := fmt.Errorf("record failed: %w", f)
	if got := ItemID(wrapped); got != "opp_002" {
		t.Fatalf("ItemID = %q, want opp_002", got)
	}
	if got := ItemID(errors.New("plain")); got != "" {
		t.Fatalf("plain error should have no item id, got %q", got)
	}
}

func TestFaultErrorString(t *testing.T) {
	t.Parallel()

	f := FromStatus("crm.update_opportunity", 404, errors.New("no such record"))
	f.ItemID = "opp_009"
	msg := f.Error()
	for _, want := range []string{"crm.update_opportunity", "permanent", "opp_009", "404"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error string %q missing %q", msg, want)
		}
	}
}
