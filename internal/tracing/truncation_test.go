package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	assert.Equal(t, "my***************om", MaskPII("myemail@example.com"))
}

func TestSafeAttributeValueMasksSensitiveNames(t *testing.T) {
	assert.Equal(t, "al***************om", SafeAttributeValue("candidate_email", "alice.w@example.com", DefaultMaxLength))
	assert.Equal(t, "A***e", SafeAttributeValue("name", "Alice", DefaultMaxLength))
	// 非敏感字段只做截断
	assert.Equal(t, "Backend Engineer", SafeAttributeValue("post_title", "Backend Engineer", DefaultMaxLength))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))

	long := "abcdefghijklmnopqrstuvwxyz"
	got := TruncateString(long, 11)
	assert.Len(t, []rune(got), 11)
	assert.Contains(t, got, "...")
	assert.Equal(t, "abcd", got[:4])
}
