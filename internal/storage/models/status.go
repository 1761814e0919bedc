package models

// ApplicationStatus 候选人申请状态，闭合枚举
type ApplicationStatus string

const (
	ApplicationToBeReviewed ApplicationStatus = "To Be Reviewed"
	ApplicationRelevant     ApplicationStatus = "Relevant"
	ApplicationRejectable   ApplicationStatus = "Rejectable"
)

// Valid 判断是否为合法的申请状态值
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationToBeReviewed, ApplicationRelevant, ApplicationRejectable:
		return true
	}
	return false
}

// PostStatus 职位状态，闭合枚举
type PostStatus string

const (
	PostOpen  PostStatus = "Open"
	PostClose PostStatus = "Close"
)

// Valid 判断是否为合法的职位状态值
func (s PostStatus) Valid() bool {
	return s == PostOpen || s == PostClose
}

// InterviewStatus 面试状态，闭合枚举
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "Scheduled"
	InterviewRetained  InterviewStatus = "Retained"
	InterviewRejected  InterviewStatus = "Rejected"
)

// Valid 判断是否为合法的面试状态值
func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewRetained, InterviewRejected:
		return true
	}
	return false
}

// ChatMessage角色
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
