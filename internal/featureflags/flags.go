// Package featureflags evaluates the FEATURE_FLAGS setting, a comma-separated
// list such as "registration_otp=on,follow_notifications=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// RegistrationOTP requires a verified OTP before an email can register.
	RegistrationOTP = "registration_otp"
	// FollowNotifications pushes a realtime event to a user who gains a follower.
	FollowNotifications = "follow_notifications"
	// CommentNotifications pushes a realtime event to a post author on new comments.
	CommentNotifications = "comment_notifications"
)

// defaults apply when a flag is absent from the setting.
var defaults = map[string]string{
	RegistrationOTP:      "off",
	FollowNotifications:  "on",
	CommentNotifications: "on",
}

// Manager holds parsed flag values. A nil Manager reports every flag off.
type Manager struct {
	flags map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string, len(defaults))
	for k, v := range defaults {
		flags[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = value
	}
	return &Manager{flags: flags}
}

// On reports a flag that is not rolled out per user; percentages count as off
// until they reach 100%.
func (m *Manager) On(name string) bool {
	return m.Enabled(name, 0)
}

// Enabled reports whether name is enabled for userID. Values: on/true/1,
// off/false/0, or N% for a deterministic per-user rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every known flag for userID, for the health endpoint and logs.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
