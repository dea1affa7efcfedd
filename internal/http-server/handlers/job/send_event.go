package job

import "github.com/Romulus-Sol/agent-casino-sub001/internal/http-server/handlers/event"

type SendEventJob struct {
	EventMessage event.Message
	Event        *event.SettlementPusher
}

func (job *SendEventJob) Execute() {
	if err := job.Event.TriggerEvent(job.EventMessage); err != nil {
		return
	}
}
