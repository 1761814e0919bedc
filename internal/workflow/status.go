// Package workflow 实现状态工作流引擎：校验并执行候选人与面试的状态迁移，
// 并从状态派生只读事实（面试是否已过期、分数的展示换算等）。
package workflow

import (
	"time"

	"recruit-track-go/internal/storage/models"
)

// CanTransitionCandidate 候选人状态迁移是否合法。
// 申请状态是扁平图：任意两个合法状态之间都可以互相迁移，没有终态。
func CanTransitionCandidate(from, to models.ApplicationStatus) bool {
	return from.Valid() && to.Valid()
}

// CanTransitionInterview 面试状态迁移是否合法。
// Scheduled是唯一初始态，只能迁移到Retained或Rejected；
// Retained/Rejected是终态，不允许再迁出。同状态迁移视为无操作，允许。
func CanTransitionInterview(from, to models.InterviewStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return from == models.InterviewScheduled
}

// IsTerminalInterview 面试是否处于终态
func IsTerminalInterview(status models.InterviewStatus) bool {
	return status == models.InterviewRetained || status == models.InterviewRejected
}

// IsPast 面试时间是否已经过去
func IsPast(scheduledAt, now time.Time) bool {
	return scheduledAt.Before(now)
}

// IsUpcoming 面试是否尚未开始
func IsUpcoming(scheduledAt, now time.Time) bool {
	return !IsPast(scheduledAt, now)
}

// 相关性分数持久化统一采用0-100分制，展示层按需换算。

// ScoreOutOfTen 0-100分换算为0-10分（百分环展示用）
func ScoreOutOfTen(score int) float64 {
	return float64(score) / 10
}

// ScoreStars 0-100分换算为0-5星（星级展示用）
func ScoreStars(score int) float64 {
	return float64(score) / 20
}
