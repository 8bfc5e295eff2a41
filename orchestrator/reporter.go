package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	Logger "github.com/takumi-dev/polifeed/utils/log"
)

// TopicRunFinished carries the JSON-encoded RunResult of every finished run.
const TopicRunFinished = "scrape.run.finished"

// publishResult hands a finished run to the event bus for the reporter.
// Publishing is best effort: a dead bus never affects the run itself.
func (o *Orchestrator) publishResult(result *RunResult) {
	if o.Bus == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		Logger.Log.Errorf("fail to encode run result: %v", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := o.Bus.Publish(TopicRunFinished, msg); err != nil {
		Logger.Log.Errorf("fail to publish finished run: %v", err)
	}
}

// RunRecorder persists the latest run outcome per run type.
type RunRecorder interface {
	RecordRunResult(runType string, payload string) error
}

// Reporter listens for finished runs on the event bus and records their
// outcome so the admin surface can answer "what happened last".
type Reporter struct {
	Recorder RunRecorder
	EventBus *gochannel.GoChannel
}

func NewReporter(recorder RunRecorder, e *gochannel.GoChannel) *Reporter {
	return &Reporter{Recorder: recorder, EventBus: e}
}

func (r *Reporter) Run(ctx context.Context) error {
	messages, err := r.EventBus.Subscribe(ctx, TopicRunFinished)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var result RunResult
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			Logger.Log.Errorf("undecodable run result on bus: %v", err)
			continue
		}
		if err := r.Recorder.RecordRunResult(string(result.RunType), string(msg.Payload)); err != nil {
			Logger.Log.Errorf("fail to record run status: %v", err)
		}
	}
	return nil
}
