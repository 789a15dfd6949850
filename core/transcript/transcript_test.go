package transcript

import (
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	base := time.UnixMilli(1700000000000)
	return func() time.Time { return base }
}

func TestAddMessageCreatesOncePerID(t *testing.T) {
	tr := New(WithClock(fixedClock()))

	if !tr.AddMessage("m1", RoleUser, "hello", false) {
		t.Fatal("expected first create to succeed")
	}
	if tr.AddMessage("m1", RoleAssistant, "overwrite attempt", false) {
		t.Fatal("expected repeated create for the same id to be ignored")
	}

	item, _ := tr.Get("m1")
	if item.Role != RoleUser || item.Text != "hello" {
		t.Fatalf("expected original message preserved, got role=%q text=%q", item.Role, item.Text)
	}
}

func TestUpdateMessageDeltaAndReplace(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddMessage("m1", RoleAssistant, "", false)

	tr.UpdateMessage("m1", "Hel", true)
	tr.UpdateMessage("m1", "lo", true)
	if item, _ := tr.Get("m1"); item.Text != "Hello" {
		t.Fatalf("expected accumulated deltas, got %q", item.Text)
	}

	tr.UpdateMessage("m1", "Hello there", false)
	if item, _ := tr.Get("m1"); item.Text != "Hello there" {
		t.Fatalf("expected replaced text, got %q", item.Text)
	}
}

func TestUpdateMessageMissingItemIsNoop(t *testing.T) {
	tr := New(WithClock(fixedClock()))

	if tr.UpdateMessage("ghost", "delta", true) {
		t.Fatal("expected update of a missing item to report false")
	}
	if tr.Len() != 0 {
		t.Fatalf("expected no item created, got %d", tr.Len())
	}
}

func TestToolNoteStatusNeverMovesBackward(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddToolNote("resolve_wallet", nil, "t1", StatusInProgress)

	done := StatusDone
	tr.UpdateItem("t1", Patch{Status: &done})

	inProgress := StatusInProgress
	tr.UpdateItem("t1", Patch{Status: &inProgress})

	if item, _ := tr.Get("t1"); item.Status != StatusDone {
		t.Fatalf("expected status to remain DONE, got %q", item.Status)
	}
}

func TestAddToolNoteCollapsesDuplicateIDs(t *testing.T) {
	tr := New(WithClock(fixedClock()))

	tr.AddToolNote("resolve_wallet", nil, "t1", StatusInProgress)
	tr.AddToolNote("resolve_wallet", nil, "t1", StatusInProgress)

	if tr.Len() != 1 {
		t.Fatalf("expected one note, got %d", tr.Len())
	}
}

func TestUpdateItemShallowMergesData(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddToolNote("resolve_wallet", map[string]any{"arguments": `{"q":1}`}, "t1", StatusInProgress)

	tr.UpdateItem("t1", Patch{Data: map[string]any{"output": "ok"}})

	item, _ := tr.Get("t1")
	if item.Data["arguments"] != `{"q":1}` {
		t.Fatalf("expected streamed arguments preserved, got %v", item.Data["arguments"])
	}
	if item.Data["output"] != "ok" {
		t.Fatalf("expected output merged in, got %v", item.Data["output"])
	}
}

func TestItemsSortedByCreatedAtMs(t *testing.T) {
	tr := New(WithClock(fixedClock()))

	// Same wall-clock millisecond for every create; ordering keys must
	// still be strictly increasing in append order.
	tr.AddMessage("m1", RoleUser, "first", false)
	tr.AddBreadcrumb("second", nil)
	tr.AddToolNote("third", nil, "t1", StatusInProgress)

	items := tr.Items()
	if len(items) != 3 {
		t.Fatalf("expected three items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAtMs <= items[i-1].CreatedAtMs {
			t.Fatalf("expected strictly increasing ordering keys, got %d then %d",
				items[i-1].CreatedAtMs, items[i].CreatedAtMs)
		}
	}
}

func TestHiddenItemsAreKept(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddMessage("m1", RoleAssistant, "redacted", false)

	hidden := true
	tr.UpdateItem("m1", Patch{Hidden: &hidden})

	item, ok := tr.Get("m1")
	if !ok {
		t.Fatal("expected hidden item to still exist")
	}
	if !item.IsHidden {
		t.Fatal("expected item to be hidden")
	}
	if item.Text != "redacted" {
		t.Fatalf("expected text preserved, got %q", item.Text)
	}
}

func TestGuardrailAttachment(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddMessage("m1", RoleAssistant, "something rude", false)

	tr.UpdateItem("m1", Patch{Guardrail: &GuardrailResult{
		Status:   StatusDone,
		Category: "moderation",
	}})

	item, _ := tr.Get("m1")
	if item.Guardrail == nil || item.Guardrail.Category != "moderation" {
		t.Fatalf("expected guardrail verdict attached, got %+v", item.Guardrail)
	}
}

func TestLatestAssistantMessage(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddMessage("u1", RoleUser, "question", false)
	tr.AddMessage("a1", RoleAssistant, "first answer", false)
	tr.AddMessage("a2", RoleAssistant, "second answer", false)
	tr.AddBreadcrumb("noise", nil)

	item, ok := tr.LatestAssistantMessage()
	if !ok || item.ItemID != "a2" {
		t.Fatalf("expected latest assistant message a2, got %q (ok=%t)", item.ItemID, ok)
	}
}

func TestSnapshotIsIsolatedFromLaterMutation(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddToolNote("resolve_wallet", map[string]any{"arguments": "a"}, "t1", StatusInProgress)

	snapshot := tr.Items()
	tr.UpdateItem("t1", Patch{Data: map[string]any{"arguments": "b"}})

	if snapshot[0].Data["arguments"] != "a" {
		t.Fatalf("expected snapshot isolation, got %v", snapshot[0].Data["arguments"])
	}
}

func TestToggleExpandDoesNotAffectLifecycle(t *testing.T) {
	tr := New(WithClock(fixedClock()))
	tr.AddToolNote("resolve_wallet", nil, "t1", StatusInProgress)

	tr.ToggleExpand("t1")
	item, _ := tr.Get("t1")
	if !item.Expanded {
		t.Fatal("expected expansion flag set")
	}
	if item.Status != StatusInProgress {
		t.Fatalf("expected status untouched, got %q", item.Status)
	}

	tr.ToggleExpand("t1")
	if item, _ := tr.Get("t1"); item.Expanded {
		t.Fatal("expected expansion flag cleared")
	}
}
