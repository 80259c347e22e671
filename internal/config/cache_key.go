package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RespondentAnswersKey returns the hash key holding a respondent's buffered answers.
// Each hash field is a category code whose value is a JSON object of question code -> score.
func (r *CacheKeyStruct) RespondentAnswersKey(respondentID int) string {
	return fmt.Sprintf("survey:respondent:%d:answers", respondentID)
}

// RespondentAnswersPattern matches every respondent answer hash, for SCAN.
func (r *CacheKeyStruct) RespondentAnswersPattern() string {
	return "survey:respondent:*:answers"
}

// ChartDataKey returns the cache key for the dashboard chart snapshot.
func (r *CacheKeyStruct) ChartDataKey() string {
	return "report:chart_data"
}

// RateLimitKey returns the counter key for a client within a fixed window.
func (r *CacheKeyStruct) RateLimitKey(scope, clientIP string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, clientIP, window)
}

// SurveyEventsChannel returns the Redis PubSub channel for survey lifecycle events.
func (r *CacheKeyStruct) SurveyEventsChannel() string {
	return "survey:events"
}

var CacheKey = NewCacheKeyStruct()
