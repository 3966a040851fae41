package consumer

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// Consumer orchestrates the receive, parse and run stages for report requests
type Consumer struct {
	receiver *Receiver
	parser   *ParserStage
	runner   *Runner
}

// NewConsumer wires the pipeline stages
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, generator ReportGenerator, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.Consumer.MaxMessages,
		WaitTimeSeconds: cfg.Consumer.WaitTimeSeconds,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONReportParser(), cfg.Consumer.RetryVisibilitySec, log)

	runner := NewRunner(generator, cfg.Report.GenerationTimeout, log)

	return &Consumer{
		receiver: receiver,
		parser:   parser,
		runner:   runner,
	}
}

// Start runs the pipeline until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 10)
	envelopeChan := make(chan *Envelope, 10)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.runner.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
