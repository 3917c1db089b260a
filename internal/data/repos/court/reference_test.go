package court

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

func TestReferenceCaseListUnlinked(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	refs := NewReferenceCaseRepo(gdb, testutil.Logger(t))
	cases := NewCaseRepo(gdb, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	seeded := make([]*types.ReferenceCase, 0, 3)
	for _, docket := range []string{"1:23-cv-00100", "1:23-cv-00200", "1:23-cv-00300"} {
		ref := &types.ReferenceCase{
			CourtID:      "vaed",
			DocketNumber: docket,
			Plaintiff:    "Smith",
			Defendant:    "Jones",
		}
		if err := tx.Create(ref).Error; err != nil {
			t.Fatalf("seed reference row: %v", err)
		}
		seeded = append(seeded, ref)
	}

	// Link the middle row to a case; it must drop out of the unlinked set.
	linked := seeded[1]
	courtCase := &types.Case{
		CourtID:      "vaed",
		DocketNumber: linked.DocketNumber,
		ReferenceID:  &linked.ID,
	}
	if err := cases.Create(dbc, courtCase); err != nil {
		t.Fatalf("Create case: %v", err)
	}

	out, err := refs.ListUnlinked(dbc, uuid.Nil, 100)
	if err != nil {
		t.Fatalf("ListUnlinked: %v", err)
	}
	got := map[uuid.UUID]bool{}
	for _, ref := range out {
		got[ref.ID] = true
	}
	if got[linked.ID] {
		t.Fatalf("linked reference row still listed as unlinked")
	}
	if !got[seeded[0].ID] || !got[seeded[2].ID] {
		t.Fatalf("unlinked reference rows missing from listing")
	}

	// Keyset pagination: page size one, resume from the last seen id, and the
	// pages together cover every unlinked row exactly once.
	want := []uuid.UUID{seeded[0].ID, seeded[2].ID}
	sort.Slice(want, func(i, j int) bool { return want[i].String() < want[j].String() })

	var pages []uuid.UUID
	after := uuid.Nil
	for {
		page, err := refs.ListUnlinked(dbc, after, 1)
		if err != nil {
			t.Fatalf("ListUnlinked page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, ref := range page {
			if ref.ID == seeded[0].ID || ref.ID == seeded[2].ID {
				pages = append(pages, ref.ID)
			}
		}
		after = page[len(page)-1].ID
	}
	if len(pages) != len(want) {
		t.Fatalf("paged over %d seeded rows, want %d", len(pages), len(want))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Fatalf("page order = %v, want %v", pages, want)
		}
	}
}
