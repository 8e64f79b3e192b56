package chat

import "testing"

func TestTurns(t *testing.T) {
	tr := Transcript{Messages: []string{"a", "ra", "b", "rb", "c"}}
	turns := tr.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[1] != (Turn{User: "b", Reply: "rb"}) {
		t.Fatalf("unexpected turn: %+v", turns[1])
	}
	if turns[2] != (Turn{User: "c"}) {
		t.Fatalf("unexpected trailing turn: %+v", turns[2])
	}

	if got := (Transcript{}).Turns(); len(got) != 0 {
		t.Fatalf("expected no turns, got %+v", got)
	}
}
