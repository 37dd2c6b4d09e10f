package calendar_tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calchat/calchat/internal/calendar"
)

// Argument values arrive as decoded JSON (map[string]any), so numbers are
// float64 and nested shapes are maps and slices.

func strArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func strPtrArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func boolPtrArg(args map[string]any, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

func int64Arg(args map[string]any, key string) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// stringSliceArg accepts both a JSON array of strings and a single
// comma-separated string, which models frequently produce.
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return nil
}

// decodeRecurrence converts the structured recurrence argument
// ({"FREQ": ..., "INTERVAL": ..., "COUNT": ..., "UNTIL": ..., "BYDAY": ...})
// into a RecurrenceRule. Key lookup is case-insensitive.
func decodeRecurrence(value any) (*calendar.RecurrenceRule, error) {
	if value == nil {
		return nil, nil
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("recurrence must be an object with FREQ, INTERVAL, COUNT, UNTIL, BYDAY keys")
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[strings.ToUpper(k)] = v
	}

	rule := &calendar.RecurrenceRule{
		Freq:     strings.ToUpper(strArg(fields, "FREQ")),
		Interval: int64Arg(fields, "INTERVAL"),
		Count:    int64Arg(fields, "COUNT"),
		Until:    strArg(fields, "UNTIL"),
		ByDay:    strings.ToUpper(strArg(fields, "BYDAY")),
	}
	return rule, nil
}

// decodeReminders converts the reminders argument, which is either a
// boolean ("use the calendar defaults") or a list of
// {"method": "email"|"popup", "minutes": N} overrides.
func decodeReminders(value any) (*calendar.ReminderSpec, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case bool:
		return &calendar.ReminderSpec{UseDefault: v}, nil
	case []any:
		spec := &calendar.ReminderSpec{}
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("reminders entries must be objects with method and minutes")
			}
			spec.Overrides = append(spec.Overrides, calendar.ReminderOverride{
				Method:  strArg(entry, "method"),
				Minutes: int64Arg(entry, "minutes"),
			})
		}
		return spec, nil
	}
	return nil, fmt.Errorf("reminders must be a boolean or a list of {method, minutes} objects")
}
