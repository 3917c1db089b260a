package runtime

import (
	"testing"

	"gorm.io/datatypes"

	types "github.com/casepulse/casepulse-backend/internal/domain"
)

func TestDecodeChain(t *testing.T) {
	task := &types.WorkTask{Chain: datatypes.JSON(`["case.reindex","fetch.complete"]`)}
	chain, err := DecodeChain(task)
	if err != nil {
		t.Fatalf("DecodeChain: %v", err)
	}
	if len(chain) != 2 || chain[0] != "case.reindex" || chain[1] != "fetch.complete" {
		t.Fatalf("DecodeChain = %v", chain)
	}
}

func TestDecodeChainEmpty(t *testing.T) {
	chain, err := DecodeChain(&types.WorkTask{})
	if err != nil {
		t.Fatalf("DecodeChain empty: %v", err)
	}
	if chain != nil {
		t.Fatalf("DecodeChain empty = %v, want nil", chain)
	}

	chain, err = DecodeChain(nil)
	if err != nil || chain != nil {
		t.Fatalf("DecodeChain(nil) = (%v, %v)", chain, err)
	}
}

func TestDecodeChainInvalid(t *testing.T) {
	task := &types.WorkTask{Chain: datatypes.JSON(`{"not":"a list"}`)}
	if _, err := DecodeChain(task); err == nil {
		t.Fatalf("DecodeChain invalid json: want error")
	}
}

func TestStepResultHelpers(t *testing.T) {
	res := Continue(map[string]any{"case_id": "abc"})
	if res.Stop {
		t.Fatalf("Continue result should not stop the chain")
	}
	if res.Values["case_id"] != "abc" {
		t.Fatalf("Continue values = %v", res.Values)
	}

	if halt := Halt(); !halt.Stop {
		t.Fatalf("Halt result should stop the chain")
	}
}
