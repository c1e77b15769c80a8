// Package event decodes bucket notification documents as emitted by S3 and
// MinIO, whether they arrive over Kafka or a webhook.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNoRecords is returned when a notification document carries no records.
var ErrNoRecords = errors.New("notification has no records")

// Record is one object event with its key already URL-decoded.
type Record struct {
	EventName   string
	EventTime   time.Time
	Bucket      string
	Key         string
	Size        int64
	ContentType string
}

// Notification is a batch of records delivered together.
type Notification struct {
	Records []Record
}

// rawNotification is the S3 / MinIO notification structure.
type rawNotification struct {
	Records []struct {
		EventName string    `json:"eventName"`
		EventTime time.Time `json:"eventTime"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key         string `json:"key"`
				Size        int64  `json:"size"`
				ContentType string `json:"contentType"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Parse decodes a notification document. Every record is kept; keys are
// URL-decoded because S3 encodes them (spaces as '+') in events.
func Parse(data []byte) (*Notification, error) {
	var raw rawNotification
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if len(raw.Records) == 0 {
		return nil, ErrNoRecords
	}

	n := &Notification{Records: make([]Record, 0, len(raw.Records))}
	for i, rec := range raw.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("record %d: url-decode key %q: %w", i, rec.S3.Object.Key, err)
		}
		n.Records = append(n.Records, Record{
			EventName:   rec.EventName,
			EventTime:   rec.EventTime,
			Bucket:      rec.S3.Bucket.Name,
			Key:         key,
			Size:        rec.S3.Object.Size,
			ContentType: rec.S3.Object.ContentType,
		})
	}
	return n, nil
}

// Filter decides which records are object-created events for watched buckets.
type Filter struct {
	EventNamePrefixes []string // empty accepts every event name
	Buckets           []string // empty accepts every bucket
}

// Accept reports whether rec passes the filter.
func (f Filter) Accept(rec Record) bool {
	if len(f.EventNamePrefixes) > 0 {
		ok := false
		for _, p := range f.EventNamePrefixes {
			if strings.HasPrefix(rec.EventName, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Buckets) > 0 {
		for _, b := range f.Buckets {
			if rec.Bucket == b {
				return true
			}
		}
		return false
	}
	return true
}
