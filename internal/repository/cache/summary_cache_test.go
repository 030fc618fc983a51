package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSummaryCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewSummaryCache(ctx, "127.0.0.1:1", "", 0, time.Minute)
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not create summary cache")
}
