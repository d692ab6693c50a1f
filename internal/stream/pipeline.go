package stream

import (
	"context"
	"errors"

	"github.com/eleven-am/relay-backend/internal/audio"
	"github.com/eleven-am/relay-backend/internal/transcription"
	"github.com/eleven-am/relay-backend/internal/translation"
	"github.com/eleven-am/relay-backend/internal/transport"
	"github.com/google/uuid"
)

// runPipeline is one recognizer invocation for one session: it feeds the
// run's audio buffer into the recognizer and fans results out to the source
// and subscribers, translating first when the target language differs from
// the spoken one. It exits when the audio buffer closes, the run is aborted,
// or a translation fails; endRun cleans up whichever way it leaves.
func (m *Manager) runPipeline(ctx context.Context, s *Session, buf *audio.Buffer) {
	defer s.endRun(buf)

	log := m.log.With("stream_id", s.ID())
	target := s.TargetLanguage()
	crossLanguage := target.IsSet() && target != m.sourceLang

	rs, err := m.recognizer.Start(ctx, transcription.SessionConfig{
		LanguageCode:      m.sourceLang.String(),
		SampleRateHertz:   44100,
		VocabularyName:    m.vocabulary,
		StabilizePartials: true,
	}, buf.Chunks())
	if err != nil {
		log.Error("failed to start transcription", "error", err)
		m.analytics.CaptureError("transcription_start_failed", err, s.ID(), nil)
		return
	}
	defer rs.Close()

	chunker := translation.NewChunker()
	meta := translation.Metadata{
		StreamID:  s.ID(),
		SessionID: s.ID(),
		TraceID:   uuid.New().String(),
	}
	var previous string

	for result := range rs.Results() {
		// Pause and stop flip this flag; late results are dropped rather
		// than forwarded after the operator asked for silence.
		if !s.Transcribing() {
			return
		}

		if !crossLanguage {
			text := transcription.ItemsToText(result.Items)
			if text == "" {
				text = result.Transcript
			}
			if text == "" {
				continue
			}
			s.Broadcast(transport.TranscriptMessage{
				Type:                    transport.MessageTypeTranscript,
				SourceLanguageCode:      m.sourceLang,
				DestinationLanguageCode: m.sourceLang,
				Transcript:              text,
				IsPartial:               result.IsPartial,
				StreamID:                s.ID(),
			})
			continue
		}

		chunk, ready := chunker.Feed(result.Items, result.IsPartial)
		if !ready {
			continue
		}

		translated, err := m.translator.Translate(ctx, translation.Request{
			Text:       chunk,
			SourceLang: m.sourceLang,
			TargetLang: target,
			Context:    previous,
			Metadata:   meta,
		})
		if err != nil {
			if isCancellation(err) {
				return
			}
			log.Error("translation failed, ending run", "error", err)
			m.analytics.CaptureError("translation_failed", err, s.ID(), nil)
			return
		}

		// The translate call is a suspension point; a pause or stop may have
		// landed while it was in flight.
		if !s.Transcribing() {
			return
		}

		chunker.Clear()
		previous = translated
		s.Broadcast(transport.TranscriptMessage{
			Type:                    transport.MessageTypeTranscript,
			SourceLanguageCode:      m.sourceLang,
			DestinationLanguageCode: target,
			Transcript:              translated,
			IsPartial:               false,
			StreamID:                s.ID(),
		})
	}

	if err := rs.Err(); err != nil && !isCancellation(err) {
		log.Error("transcription stream error", "error", err)
		m.analytics.CaptureError("transcription_error", err, s.ID(), nil)
	}
}

// isCancellation reports whether an error is the normal fallout of an aborted
// run rather than a real failure.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
