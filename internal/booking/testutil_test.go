package booking

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/notify"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.New("error")
}

func bookedLead() *leads.Lead {
	return &leads.Lead{
		ID:               "lead-1",
		CreatedAt:        time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		Name:             "Sarah Jones",
		Phone:            "+17138642200",
		Email:            "sarah@example.com",
		Channel:          leads.ChannelWeb,
		ServiceRequested: "Full Detail",
		JobDetails:       "SUV, pet hair",
		Location:         "77008",
		ChosenSlot:       "Saturday at 10am",
		EstimatedRevenue: 165,
		Status:           leads.StatusBooked,
		Messages: []leads.Message{
			{From: leads.SenderUser, Body: "Saturday 10am works"},
			{From: leads.SenderAI, Body: "You're all set for Saturday at 10am!"},
		},
	}
}

// recordingSender captures messages and fails for listed recipients.
type recordingSender struct {
	mu     sync.Mutex
	sent   []notify.EmailMessage
	failTo map[string]error
}

func (r *recordingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failTo[msg.To]; ok {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) byRecipient(to string) (notify.EmailMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.sent {
		if m.To == to {
			return m, true
		}
	}
	return notify.EmailMessage{}, false
}

// mockS3Client keeps objects in memory.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, _ := io.ReadAll(input.Body)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = body
	m.types[*input.Key] = *input.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

var errBoom = errors.New("boom")
