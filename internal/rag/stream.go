package rag

import (
	"context"
	"time"

	"knowledge-rag/internal/models"
)

// AnswerStream runs the full pipeline, then replays the finished answer over
// the returned channel as rune-sized token events paced by the engine's
// stream delay. After the last token a sources event carries the hits,
// confidence and cost, followed by a done event. A pipeline failure produces
// a single error event. The channel is closed when the stream ends or the
// context is cancelled.
func (e *Engine) AnswerStream(ctx context.Context, query string) <-chan models.StreamEvent {
	out := make(chan models.StreamEvent)

	go func() {
		defer close(out)

		answer, err := e.Answer(ctx, query)
		if err != nil {
			emit(ctx, out, models.StreamEvent{Type: models.StreamError, Err: err})
			return
		}

		ticker := time.NewTicker(e.tickInterval())
		defer ticker.Stop()

		for _, r := range answer.Text {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !emit(ctx, out, models.StreamEvent{Type: models.StreamToken, Content: string(r)}) {
				return
			}
		}

		if !emit(ctx, out, models.StreamEvent{
			Type:       models.StreamSources,
			Sources:    answer.Sources,
			Confidence: answer.Confidence,
			Cost:       answer.Cost,
		}) {
			return
		}
		emit(ctx, out, models.StreamEvent{Type: models.StreamDone})
	}()

	return out
}

func (e *Engine) tickInterval() time.Duration {
	if e.streamDelay <= 0 {
		return time.Nanosecond
	}
	return e.streamDelay
}

func emit(ctx context.Context, out chan<- models.StreamEvent, ev models.StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}
