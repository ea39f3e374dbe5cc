package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentAnswersKey returns the cache key for a student's autosaved answers.
func (r *CacheKeyStruct) StudentAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:answers", studentID, examID)
}

// StudentQuestionOrderKey returns the cache key for a student's shuffled
// question order, kept for reconnect and post-hoc review.
func (r *CacheKeyStruct) StudentQuestionOrderKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:question_order", studentID, examID)
}

// StudentLatestResultKey returns the cache key holding the latest result a
// student produced for an exam, written at submit so the finish screen never
// depends on the persistence queue.
func (r *CacheKeyStruct) StudentLatestResultKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:latest_result", studentID, examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam's
// live monitor stream.
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
