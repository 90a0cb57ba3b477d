package notify

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pagewatcher/internal/detect"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

const timestampLayout = "2006/01/02 15:04:05"

// Format renders the notification text for ev. mention is a Discord user id and
// label the extracted page heading; both are optional.
func Format(ev state.TriggerEvent, mention, label string) string {
	if label == detect.UnknownLabel {
		label = ""
	}
	ts := ev.DetectedAt.Format(timestampLayout)

	var b strings.Builder
	if mention != "" {
		fmt.Fprintf(&b, "<@%s>\n", mention)
	}

	switch ev.Reason {
	case state.ReasonChangedToAvailable, state.ReasonChangedToUnavailable:
		name := label
		if name == "" {
			name = ev.TargetKey
		}
		now := strings.ToUpper(strings.TrimPrefix(string(ev.Reason), "STATUS_CHANGED_TO_"))
		prev, _ := ev.Extra["previous_status"].(string)
		fmt.Fprintf(&b, "%s %s is now %s (was %s).\n", ts, name, now, prev)
	default:
		fmt.Fprintf(&b, "%s the page display may have changed.\n", ts)
		if label != "" {
			fmt.Fprintf(&b, "%s\n", label)
		}
	}
	fmt.Fprintf(&b, "url: %s\n", ev.URL)
	return b.String()
}
