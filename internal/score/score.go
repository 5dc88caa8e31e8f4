// Package score computes the bounded relevance score used to rank context
// items for retention and prompt inclusion.
package score

import (
	"time"

	"github.com/rcliao/ctxmem/internal/model"
)

const (
	recencyWeight   = 0.3
	frequencyWeight = 0.2
	priorityWeight  = 0.3
	sizeWeight      = 0.1

	recencyWindow  = 24 * time.Hour
	frequencyCap   = 10
	sizeSoftLimit  = 10 * 1024
	priorityLevels = 5
)

// TypeBonus is the additive bonus per context type.
var TypeBonus = map[string]float64{
	"error":      0.2,
	"code":       0.15,
	"task":       0.1,
	"user_input": 0.1,
}

// Score returns the relevance of item at now, always within [0,1].
func Score(item model.ContextItem, now time.Time) float64 {
	recency := 1 - float64(now.Sub(item.LastAccessed))/float64(recencyWindow)
	frequency := float64(item.AccessCount) / frequencyCap
	priority := float64(priorityLevels+1-int(item.Priority)) / priorityLevels
	size := 1 - float64(item.SizeBytes)/sizeSoftLimit

	s := recencyWeight*unit(recency) +
		frequencyWeight*unit(frequency) +
		priorityWeight*unit(priority) +
		sizeWeight*unit(size) +
		TypeBonus[item.ContextType]
	return unit(s)
}

func unit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
