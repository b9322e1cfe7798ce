package events

import (
	"testing"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

func TestFollowUps_InheritsOrigin(t *testing.T) {
	origin := types.TriggerContext{
		Trigger:   "dayStarted",
		Args:      []any{1},
		Location:  "Farm",
		Actor:     "Player",
		InputItem: &types.Item{ID: "(O)390"},
	}

	got := FollowUps([]types.Event{{Type: "FlagChanged"}}, origin)
	if len(got) != 1 {
		t.Fatalf("expected 1 follow-up, got %d", len(got))
	}
	tc := got[0]
	if tc.Trigger != "FlagChanged" {
		t.Errorf("Trigger = %q", tc.Trigger)
	}
	if tc.Args == nil || len(tc.Args) != 0 {
		t.Errorf("Args = %v, want empty non-nil", tc.Args)
	}
	if tc.Location != "Farm" || tc.Actor != "Player" {
		t.Errorf("context not inherited: %+v", tc)
	}
	if tc.InputItem == nil || tc.InputItem.ID != "(O)390" {
		t.Errorf("InputItem = %v", tc.InputItem)
	}
}

func TestFollowUps_DataOverridesContext(t *testing.T) {
	origin := types.TriggerContext{Trigger: "dayStarted", Location: "Farm", TargetItem: &types.Item{ID: "old"}}
	data := map[string]any{"location": "Town", "item": "(O)388", "x": 1, "y": 2}

	got := FollowUps([]types.Event{{Type: "ObjectSpawned", Data: data}}, origin)
	if len(got) != 1 {
		t.Fatalf("expected 1 follow-up, got %d", len(got))
	}
	tc := got[0]
	if tc.Location != "Town" {
		t.Errorf("Location = %q, want Town", tc.Location)
	}
	if tc.TargetItem == nil || tc.TargetItem.ID != "(O)388" {
		t.Errorf("TargetItem = %v", tc.TargetItem)
	}
	if len(tc.Args) != 1 {
		t.Fatalf("expected event data as the single arg, got %v", tc.Args)
	}
	if m, ok := tc.Args[0].(map[string]any); !ok || m["x"] != 1 {
		t.Errorf("Args[0] = %v", tc.Args[0])
	}
	if origin.TargetItem.ID != "old" {
		t.Error("origin must not be modified")
	}
}

func TestFollowUps_KeepsOrderAndSkipsUntyped(t *testing.T) {
	evs := []types.Event{
		{Type: "A"},
		{},
		{Type: "B"},
	}
	got := FollowUps(evs, types.TriggerContext{})
	if len(got) != 2 || got[0].Trigger != "A" || got[1].Trigger != "B" {
		t.Errorf("FollowUps = %+v", got)
	}
}

func TestFollowUps_Empty(t *testing.T) {
	if got := FollowUps(nil, types.TriggerContext{}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
