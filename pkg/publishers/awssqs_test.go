package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      discard{},
	}

	err := pub.Publish(context.Background(), Event{ProjectID: "yso-en", DocumentID: "d1"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["document_id"]
	if !ok || aws.ToString(attr.StringValue) != "d1" {
		t.Fatalf("document_id attribute missing or wrong: %#v", attr)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"project_id":"yso-en"`) {
		t.Fatalf("MessageBody missing project_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherSkipsEmptyAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{queueURL: "q", client: client, log: discard{}}

	if err := pub.Publish(context.Background(), Event{DocumentID: "d1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, ok := client.input.MessageAttributes["project_id"]; ok {
		t.Fatalf("empty attribute values must be dropped")
	}
}

func TestSQSPublisherPublishError(t *testing.T) {
	pub := &sqsPublisher{
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: errors.New("boom")},
		log:      discard{},
	}

	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
