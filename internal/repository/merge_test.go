package repository

import (
	"fmt"
	"testing"

	"github.com/andresuchdata/rxflow/internal/domain"
)

func TestReplaceOnKeyMatchKeepsIDs(t *testing.T) {
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	var s ReplaceOnKeyMatch[*domain.UsageRecord]
	existing, res := s.Merge(nil, []*domain.UsageRecord{{Date: "2024-01-01"}, {Date: "2024-01-02"}}, newID)
	if res.Added != 2 || existing[0].ID != "id-1" || existing[1].ID != "id-2" {
		t.Fatalf("unexpected first merge %+v %+v", res, existing)
	}

	merged, res := s.Merge(existing, []*domain.UsageRecord{{Date: "2024-01-02", TotalVolume: 9}, {Date: "2024-01-03"}}, newID)
	if res.Added != 1 || res.Updated != 1 {
		t.Fatalf("unexpected second merge %+v", res)
	}
	if merged[1].ID != "id-2" || merged[1].TotalVolume != 9 {
		t.Fatalf("matched record lost its id or body: %+v", merged[1])
	}
	if merged[2].ID != "id-3" {
		t.Fatalf("new record id = %s", merged[2].ID)
	}
	if existing[1].TotalVolume != 0 {
		t.Fatal("merge modified the existing slice")
	}
	if s.Name() != "replace_on_key_match" {
		t.Fatalf("Name = %s", s.Name())
	}
}
