package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// S3API is the subset of the S3 client used by ArchiveStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ArchiveStore keeps a copy of every confirmed booking in S3: the invite,
// the lead with its transcript, and a monthly JSONL manifest.
type ArchiveStore struct {
	bucket string
	s3     S3API
	logger *logging.Logger
}

// NewArchiveStore returns a store for bucket. With no bucket every call is a no-op.
func NewArchiveStore(client S3API, bucket string, logger *logging.Logger) *ArchiveStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &ArchiveStore{bucket: bucket, s3: client, logger: logger.Component("booking_archive")}
}

// Enabled reports whether a bucket and client are configured.
func (s *ArchiveStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3 != nil
}

// BookingRecord is the JSON document archived next to the invite.
type BookingRecord struct {
	LeadID     string      `json:"leadId"`
	ArchivedAt time.Time   `json:"archivedAt"`
	Service    string      `json:"service"`
	ChosenSlot string      `json:"chosenSlot"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Location   string      `json:"location"`
	Price      string      `json:"price,omitempty"`
	Lead       *leads.Lead `json:"lead"`
}

// ManifestEntry is one line of the monthly manifest.
type ManifestEntry struct {
	LeadID     string `json:"leadId"`
	ICSKey     string `json:"icsKey"`
	RecordKey  string `json:"recordKey"`
	Service    string `json:"service"`
	Start      string `json:"start"`
	ArchivedAt string `json:"archivedAt"`
}

// Archive writes bookings/<yyyy>/<mm>/<dd>/<lead-id>.ics and .json and
// appends the booking to the month's manifest. A manifest failure is only
// logged since the booking itself is already stored.
func (s *ArchiveStore) Archive(ctx context.Context, rec BookingRecord, ics string) error {
	if !s.Enabled() {
		return nil
	}
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}
	at := rec.ArchivedAt.UTC()
	base := fmt.Sprintf("bookings/%d/%02d/%02d/%s", at.Year(), at.Month(), at.Day(), rec.LeadID)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("booking: marshal record: %w", err)
	}
	if err := s.put(ctx, base+".ics", []byte(ics), icsContentType); err != nil {
		return err
	}
	if err := s.put(ctx, base+".json", data, "application/json"); err != nil {
		return err
	}
	s.logger.Info("archived booking to S3", "lead_id", rec.LeadID, "s3_key", base)

	entry := ManifestEntry{
		LeadID:     rec.LeadID,
		ICSKey:     base + ".ics",
		RecordKey:  base + ".json",
		Service:    rec.Service,
		Start:      rec.Start.Format(time.RFC3339),
		ArchivedAt: at.Format(time.RFC3339),
	}
	if err := s.appendManifest(ctx, at, entry); err != nil {
		s.logger.Warn("failed to append booking manifest", "error", err, "lead_id", rec.LeadID)
	}
	return nil
}

func (s *ArchiveStore) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("booking: s3 put %s: %w", key, err)
	}
	return nil
}

// appendManifest does a read-modify-write since S3 has no append.
func (s *ArchiveStore) appendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("booking: marshal manifest entry: %w", err)
	}
	key := fmt.Sprintf("bookings/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		existing, err = io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return fmt.Errorf("booking: read manifest: %w", err)
		}
	case isNoSuchKey(err):
	default:
		return fmt.Errorf("booking: get manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')
	return s.put(ctx, key, buf.Bytes(), "application/x-ndjson")
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
