// Package events turns events emitted by handlers into follow-up triggers.
// Follow-ups are dispatched in a single pass: events emitted while handling
// a follow-up are not turned into further triggers.
package events

import "github.com/Esca-MMC/FarmTypeManager-sub001/types"

// FollowUps converts events into trigger contexts, in emission order. The
// event type becomes the trigger name and its data the single argument. The
// location and item are taken from the data when present, otherwise the
// origin's context carries over.
func FollowUps(events []types.Event, origin types.TriggerContext) []types.TriggerContext {
	var out []types.TriggerContext
	for _, ev := range events {
		if ev.Type == "" {
			continue
		}
		tc := types.TriggerContext{
			Trigger:    ev.Type,
			Args:       []any{},
			Location:   origin.Location,
			Actor:      origin.Actor,
			TargetItem: origin.TargetItem,
			InputItem:  origin.InputItem,
		}
		if ev.Data != nil {
			tc.Args = append(tc.Args, ev.Data)
			if loc, ok := ev.Data["location"].(string); ok && loc != "" {
				tc.Location = loc
			}
			if item, ok := ev.Data["item"].(string); ok && item != "" {
				tc.TargetItem = &types.Item{ID: item, Stack: 1}
			}
		}
		out = append(out, tc)
	}
	return out
}
