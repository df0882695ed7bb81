package cache

import (
	"fmt"
	"strings"
	"time"
)

const (
	PostListKey      = "post list"
	PostKeyPrefix    = "post:%d"
	ProfileKeyPrefix = "user-profile:%d"
)

// DefaultTTL applies to post and profile snapshots.
const DefaultTTL = 15 * time.Minute

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// PostKeys returns the detail keys for the given post ids.
func PostKeys(postIDs []uint) []string {
	keys := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		keys = append(keys, PostKey(id))
	}
	return keys
}

// kindOf labels a key for metrics.
func kindOf(key string) string {
	switch {
	case key == PostListKey:
		return "post_list"
	case strings.HasPrefix(key, "post:"):
		return "post"
	case strings.HasPrefix(key, "user-profile:"):
		return "user_profile"
	default:
		return "other"
	}
}
