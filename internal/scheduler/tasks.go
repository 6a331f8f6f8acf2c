package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadNotice = "notification.lead_notice"

const leadNoticeMaxRetry = 5

type LeadNoticePayload struct {
	LeadID string `json:"leadId"`
}

func NewLeadNoticeTask(payload LeadNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadNotice, data), nil
}

func ParseLeadNoticePayload(task *asynq.Task) (LeadNoticePayload, error) {
	var payload LeadNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadNoticePayload{}, err
	}
	return payload, nil
}
