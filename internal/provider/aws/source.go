// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aws

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/ondemandenv/contracts/core/contract"
)

const (
	// DefaultValuePrefix is the key prefix under which shared values are
	// stored in the value bucket.
	DefaultValuePrefix = "values"

	defaultAttempts   = 5
	defaultRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

// transientCodes are the API error codes retried when reading or
// publishing values.
var transientCodes = map[string]bool{
	"SlowDown":            true,
	"Throttling":          true,
	"ThrottlingException": true,
	"RequestTimeout":      true,
	"InternalError":       true,
	"ServiceUnavailable":  true,
}

// S3SourceConfig holds the dependencies of an S3Source.
type S3SourceConfig struct {
	Client S3Client
	Bucket string

	// Prefix defaults to DefaultValuePrefix.
	Prefix string

	Clock      clock.Clock
	Attempts   int
	RetryDelay time.Duration
}

// Validate checks the config.
func (c S3SourceConfig) Validate() error {
	if c.Client == nil {
		return errors.NotValidf("nil Client")
	}
	if c.Bucket == "" {
		return errors.NotValidf("empty Bucket")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Attempts < 0 {
		return errors.NotValidf("negative Attempts")
	}
	return nil
}

// S3Source reads the values producers published for consumers from an S3
// bucket. Every edge is stored under its own key, so a consumer reads the
// value published for it even when other consumers of the same node are
// pinned to older ones.
type S3Source struct {
	config S3SourceConfig
}

// NewS3Source returns an S3Source, defaulting the prefix and the retry
// strategy.
func NewS3Source(config S3SourceConfig) (*S3Source, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Prefix == "" {
		config.Prefix = DefaultValuePrefix
	}
	if config.Attempts == 0 {
		config.Attempts = defaultAttempts
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}
	return &S3Source{config: config}, nil
}

// ObjectKey returns the key the value of an edge is stored under:
// "<prefix>/<consumer build>/<consumer enver>/<producer build>/<producer enver>/<path>".
func (s *S3Source) ObjectKey(key contract.EdgeKey) (string, error) {
	owner, target, err := contract.ParseEdgeKey(string(key))
	if err != nil {
		return "", errors.Trace(err)
	}
	return path.Join(s.config.Prefix, string(owner), string(target.Enver), target.Path), nil
}

// SharedValue implements resolver.Source. A value that was never published
// is reported as NotFound.
func (s *S3Source) SharedValue(ctx context.Context, key contract.EdgeKey) (string, error) {
	objectKey, err := s.ObjectKey(key)
	if err != nil {
		return "", errors.Trace(err)
	}
	var value string
	err = s.call(ctx, "reading", objectKey, func() error {
		out, err := s.config.Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(objectKey),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		if err != nil {
			return errors.Annotatef(err, "reading body of %q", objectKey)
		}
		value = string(data)
		return nil
	})
	if isNoSuchKey(err) {
		return "", errors.NotFoundf("value of %q", key)
	}
	if err != nil {
		return "", errors.Annotatef(err, "reading value of %q", key)
	}
	return value, nil
}

// Publish stores the value a producer shares with the consumer of key.
func (s *S3Source) Publish(ctx context.Context, key contract.EdgeKey, value string) error {
	objectKey, err := s.ObjectKey(key)
	if err != nil {
		return errors.Trace(err)
	}
	err = s.call(ctx, "publishing", objectKey, func() error {
		_, err := s.config.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.config.Bucket),
			Key:         aws.String(objectKey),
			Body:        strings.NewReader(value),
			ContentType: aws.String("text/plain"),
		})
		return err
	})
	return errors.Annotatef(err, "publishing value of %q", key)
}

func (s *S3Source) call(ctx context.Context, verb, objectKey string, fn func() error) error {
	err := retry.Call(retry.CallArgs{
		Func: fn,
		IsFatalError: func(err error) bool {
			return !isTransient(err)
		},
		NotifyFunc: func(lastErr error, attempt int) {
			logger.Debugf("%s %q, attempt %d: %v", verb, objectKey, attempt, lastErr)
		},
		Attempts:    s.config.Attempts,
		Delay:       s.config.RetryDelay,
		MaxDelay:    maxRetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       s.config.Clock,
		Stop:        ctx.Done(),
	})
	return retry.LastError(err)
}

func isTransient(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return transientCodes[apiErr.ErrorCode()]
	}
	return false
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}
