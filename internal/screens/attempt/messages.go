package attempt

import (
	"time"

	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/service"
)

// timerTickMsg is sent every second to update the countdown.
type timerTickMsg time.Time

// answeredMsg carries the server's grading of one submission.
type answeredMsg struct {
	Result *service.AnswerResult
	Err    error
}

// pausedMsg is sent after a pause or resume round trip.
type pausedMsg struct {
	View *service.ExamView
	Err  error
}

// finishedMsg is sent once the attempt has been completed, or has ended
// some other way, e.g. by expiring.
type finishedMsg struct {
	View *service.ExamView
	Err  error
}

// activityMsg acknowledges a proctoring report.
type activityMsg struct {
	Kind exam.Activity
	Err  error
}
