package core

import (
	"time"

	"github.com/huangsam/perftimeline/schema"
)

// TagMilestones returns, in table order, the names of milestones already in effect at ts.
// A nil ts yields an empty list.
func TagMilestones(ts *time.Time, table schema.MilestoneTable) []string {
	tags := []string{}
	if ts == nil {
		return tags
	}
	key := schema.MinuteKey(*ts)
	for _, m := range table {
		if m.EffectiveKey <= key {
			tags = append(tags, m.Name)
		}
	}
	return tags
}
