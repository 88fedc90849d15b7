package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewNetwork("tixly", "fetch failed", fmt.Errorf("timeout"))
	assert.Equal(t, "[network] tixly: fetch failed - timeout", err.Error())

	err = NewRateLimit("tixly", 30*time.Second)
	assert.Equal(t, "[rate_limit] tixly: rate limited for 30s", err.Error())
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", NewDelivery("smtp", "send failed", nil))
	assert.True(t, IsType(wrapped, ErrorTypeDelivery))
	assert.False(t, IsType(wrapped, ErrorTypeNetwork))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeDelivery))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, NewConfiguration("missing sites", nil).IsFatal())
	assert.True(t, NewStore("file", "corrupt", nil).IsFatal())
	assert.False(t, NewParsing("site", "bad html", nil).IsFatal())
	assert.False(t, NewBlocked("site", "robot check").IsFatal())
}
