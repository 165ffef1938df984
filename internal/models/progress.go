package models

// ProgressStat is a completed/total pair with its percentage.
type ProgressStat struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewProgressStat derives the percentage, yielding 0 for an empty total.
func NewProgressStat(completed, total int) ProgressStat {
	stat := ProgressStat{Completed: completed, Total: total}
	if total > 0 {
		stat.Percentage = float64(completed) / float64(total) * 100
	}
	return stat
}

// CourseProgress is one enrolled course's completion summary.
type CourseProgress struct {
	CourseID           string       `json:"courseId"`
	CourseTitle        string       `json:"courseTitle"`
	AssignmentProgress ProgressStat `json:"assignmentProgress"`
	QuizProgress       ProgressStat `json:"quizProgress"`
}

// StreakInfo reports the student's current activity streak.
type StreakInfo struct {
	Streak     int    `json:"streak"`
	LastActive string `json:"lastActive,omitempty"`
}
