package notify

import (
	"strconv"
	"time"
)

// Job is the JSON payload for a capsule-open notification, used both on the
// delayed schedule and on the RabbitMQ queue.
type Job struct {
	CapsuleID int64     `json:"capsule_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	DateOpen  time.Time `json:"date_open"`
}

// DedupKey identifies one notification epoch: the same capsule notifies at
// most once per unlock date. Moving date_open starts a new epoch.
func (j Job) DedupKey() string {
	return "capsule:notified:" + strconv.FormatInt(j.CapsuleID, 10) + ":" + strconv.FormatInt(j.DateOpen.Unix(), 10)
}
