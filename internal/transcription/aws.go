package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"
)

// Config carries the AWS side of the recognizer boundary. Static credentials
// are optional; when absent the default AWS credential chain is used.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSRecognizer is the Recognizer implementation backed by Amazon Transcribe
// streaming.
type AWSRecognizer struct {
	client *transcribestreaming.Client
	log    *slog.Logger
}

func NewAWSRecognizer(ctx context.Context, cfg Config, log *slog.Logger) (*AWSRecognizer, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSRecognizer{
		client: transcribestreaming.NewFromConfig(awsCfg),
		log:    log.With("component", "transcribe"),
	}, nil
}

func (r *AWSRecognizer) Start(ctx context.Context, cfg SessionConfig, audio <-chan []byte) (ResultStream, error) {
	input := &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(cfg.LanguageCode),
		MediaEncoding:        types.MediaEncodingPcm,
		MediaSampleRateHertz: aws.Int32(cfg.SampleRateHertz),
	}
	if cfg.StabilizePartials {
		input.EnablePartialResultsStabilization = true
		input.PartialResultsStability = types.PartialResultsStabilityHigh
	}
	if cfg.VocabularyName != "" {
		input.VocabularyName = aws.String(cfg.VocabularyName)
	}

	out, err := r.client.StartStreamTranscription(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("start stream transcription: %w", err)
	}

	rs := &awsResultStream{
		es:      out.GetStream(),
		results: make(chan Result, 16),
		log:     r.log,
	}
	go rs.sendLoop(ctx, audio)
	go rs.recvLoop(ctx)
	return rs, nil
}

type awsResultStream struct {
	es      *transcribestreaming.StartStreamTranscriptionEventStream
	results chan Result
	log     *slog.Logger

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func (rs *awsResultStream) Results() <-chan Result {
	return rs.results
}

func (rs *awsResultStream) Err() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.err
}

func (rs *awsResultStream) Close() error {
	var err error
	rs.closeOnce.Do(func() {
		err = rs.es.Close()
	})
	return err
}

func (rs *awsResultStream) setErr(err error) {
	if err == nil {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.err == nil {
		rs.err = err
	}
}

// sendLoop pumps audio chunks into the transcribe event stream. Closing the
// audio channel or cancelling the context ends the input side.
func (rs *awsResultStream) sendLoop(ctx context.Context, audio <-chan []byte) {
	defer rs.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-audio:
			if !ok {
				return
			}
			event := &types.AudioStreamMemberAudioEvent{
				Value: types.AudioEvent{AudioChunk: chunk},
			}
			if err := rs.es.Send(ctx, event); err != nil {
				rs.setErr(err)
				return
			}
		}
	}
}

func (rs *awsResultStream) recvLoop(ctx context.Context) {
	defer close(rs.results)

	for event := range rs.es.Events() {
		te, ok := event.(*types.TranscriptResultStreamMemberTranscriptEvent)
		if !ok {
			continue
		}
		for _, result := range te.Value.Transcript.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			alt := result.Alternatives[0]
			r := Result{
				Transcript: aws.ToString(alt.Transcript),
				Items:      convertItems(alt.Items),
				IsPartial:  result.IsPartial,
			}
			select {
			case rs.results <- r:
			case <-ctx.Done():
				return
			}
		}
	}

	rs.setErr(rs.es.Err())
}

func convertItems(items []types.Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		t := ItemTypeWord
		if item.Type == types.ItemTypePunctuation {
			t = ItemTypePunctuation
		}
		out = append(out, Item{Type: t, Content: aws.ToString(item.Content)})
	}
	return out
}
