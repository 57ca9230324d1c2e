package ports

import (
	"time"
)

type SchedulerService interface {
	Start()
	Stop()
	ScheduleRefundAtTime(at time.Time, refundFunc func()) error
	WhenNextRefund() time.Time
}
