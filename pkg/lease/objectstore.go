package lease

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/serverless-otel/ingestd/internal/clock"
	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/metrics"
)

// ObjectStoreConfig configures an ObjectStoreManager.
type ObjectStoreConfig struct {
	Bucket     string
	Region     string
	Endpoint   string // non-empty to target an S3-compatible endpoint
	PathStyle  bool
	ProfileName string // optional named credentials profile

	// TTL is attached to each lease object as its Expires metadata; an
	// object-store lifecycle rule (outside this package) reclaims expired
	// lease objects, providing the orphan recovery the filesystem variant
	// lacks.
	TTL time.Duration

	Timeout time.Duration
	Delay   time.Duration
}

func (c ObjectStoreConfig) applyDefaults() ObjectStoreConfig {
	if c.TTL <= 0 {
		c.TTL = 300 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 300 * time.Second
	}
	if c.Delay <= 0 {
		c.Delay = 5 * time.Second
	}
	return c
}

// ObjectStoreManager grants segment leases via conditional PUT against an
// S3-compatible object store. The server-assigned entity tag of a
// successful put IS the lease handle: because it is computed over a body
// that embeds this instance's id and acquisition timestamp, no two
// acquirers can ever hold the same tag.
type ObjectStoreManager struct {
	config  ObjectStoreConfig
	client  *s3.Client
	metrics metrics.LeaseMetrics
}

var _ Manager = (*ObjectStoreManager)(nil)

// SetMetrics attaches lease instrumentation. Safe to call with nil, which
// leaves conflict/timeout recording disabled.
func (m *ObjectStoreManager) SetMetrics(lm metrics.LeaseMetrics) {
	m.metrics = lm
}

// NewObjectStoreManager constructs an ObjectStoreManager from an
// already-built S3 client, for callers that want full control over client
// construction (tests, alternative credential chains).
func NewObjectStoreManager(client *s3.Client, config ObjectStoreConfig) *ObjectStoreManager {
	return &ObjectStoreManager{client: client, config: config.applyDefaults()}
}

// NewObjectStoreManagerFromConfig builds the S3 client from the AWS SDK
// default configuration chain, optionally scoped to a named profile,
// following the same functional-options construction the teacher's block
// store uses for its own S3 client. The client is built once, during this
// call, and shared by every later Acquire/Release/Ready; its construction
// is not deferred to the first lease operation.
func NewObjectStoreManagerFromConfig(ctx context.Context, config ObjectStoreConfig) (*ObjectStoreManager, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.ProfileName != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(config.ProfileName))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = &config.Endpoint
		}
		o.UsePathStyle = config.PathStyle
	})

	return NewObjectStoreManager(client, config), nil
}

func (m *ObjectStoreManager) objectKey(dataset, segment string) string {
	return dataset + "/" + segment
}

// Initialize is a no-op for the object-store variant: there is no
// directory structure to prepare before a conditional PUT.
func (m *ObjectStoreManager) Initialize(ctx context.Context, dataset, instance, segment string) error {
	return nil
}

// Acquire attempts a put-if-absent of the lease object, retrying on
// conflict (HTTP 409/412) until it succeeds or the configured timeout
// elapses.
func (m *ObjectStoreManager) Acquire(ctx context.Context, dataset, segment, instance string, now clock.Nanos) (*Handle, error) {
	key := m.objectKey(dataset, segment)
	start := now()
	deadline := m.config.Timeout.Nanoseconds()

	ifNoneMatch := "*"
	tagging := "instance_id=" + instance

	for attempt := 1; ; attempt++ {
		body := strings.NewReader(fmt.Sprintf("%s:%d", instance, now()))
		expires := time.Now().Add(m.config.TTL)

		out, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &m.config.Bucket,
			Key:         &key,
			Body:        body,
			IfNoneMatch: &ifNoneMatch,
			Tagging:     &tagging,
			Expires:     &expires,
		})

		if err == nil {
			etag := strings.Trim(*out.ETag, `"`)
			return &Handle{ETag: etag, Timestamp: now()}, nil
		}

		if !isConflict(err) {
			return nil, &SegmentLockError{Segment: segment, Reason: fmt.Sprintf("communication error: %v", err)}
		}

		if m.metrics != nil {
			m.metrics.RecordConflict(string(KindObjectStore))
		}

		if now()-start >= deadline {
			if m.metrics != nil {
				m.metrics.RecordTimeout(string(KindObjectStore))
			}
			return nil, &SegmentLockError{Segment: segment, Reason: "timed out waiting for lease"}
		}

		logger.DebugCtx(ctx, "segment lease contended", logger.SegmentID(segment), logger.Attempt(attempt))

		select {
		case <-ctx.Done():
			return nil, &SegmentLockError{Segment: segment, Reason: ctx.Err().Error()}
		case <-time.After(m.config.Delay):
		}
	}
}

// Release verifies this handle's entity tag still matches the live object
// before deleting it, so a lease that has already expired or been
// reclaimed cannot be released by a stale holder.
func (m *ObjectStoreManager) Release(ctx context.Context, dataset, segment, instance string, handle *Handle) error {
	if handle == nil {
		return &SegmentUnlockError{Segment: segment, Reason: "no lease held"}
	}

	key := m.objectKey(dataset, segment)
	etag := `"` + handle.ETag + `"`

	_, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:  &m.config.Bucket,
		Key:     &key,
		IfMatch: &etag,
	})
	if err != nil {
		return &SegmentUnlockError{Segment: segment, Reason: "not owner"}
	}

	_, err = m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &m.config.Bucket,
		Key:    &key,
	})
	if err != nil {
		return &SegmentUnlockError{Segment: segment, Reason: fmt.Sprintf("communication error: %v", err)}
	}

	return nil
}

// Ready checks that the configured bucket is reachable and accessible.
func (m *ObjectStoreManager) Ready(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &m.config.Bucket})
	if err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", m.config.Bucket, err)
	}
	return nil
}

func isConflict(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "BucketAlreadyOwnedByYou":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 409 || respErr.HTTPStatusCode() == 412
	}

	return strings.Contains(err.Error(), "PreconditionFailed") || strings.Contains(err.Error(), "412")
}
