// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Server implements an S3 simulator for use in testing. Buckets spring
// into existence on first write.
type S3Server struct {
	mu sync.Mutex

	objects  map[string]map[string]string
	policies map[string]string
	calls    int

	// throttle is the number of upcoming calls failing with SlowDown.
	throttle int
}

// NewS3Server returns an empty S3Server.
func NewS3Server() *S3Server {
	srv := &S3Server{}
	srv.Reset()
	return srv
}

// Reset forgets every object and policy.
func (s *S3Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = make(map[string]map[string]string)
	s.policies = make(map[string]string)
	s.calls = 0
	s.throttle = 0
}

// Throttle makes the next n calls fail with a SlowDown error.
func (s *S3Server) Throttle(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = n
}

// Calls returns the number of API calls received, failed ones included.
func (s *S3Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Object returns the content stored under bucket and key.
func (s *S3Server) Object(bucket, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.objects[bucket][key]
	return value, ok
}

// Policy returns the policy put on bucket.
func (s *S3Server) Policy(bucket string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[bucket]
	return policy, ok
}

// call counts a call and reports the throttling error due, if any. The
// caller holds the lock.
func (s *S3Server) call() error {
	s.calls++
	if s.throttle > 0 {
		s.throttle--
		return apiError("SlowDown", "please reduce your request rate")
	}
	return nil
}

func (s *S3Server) GetObject(
	ctx context.Context,
	input *s3.GetObjectInput,
	opts ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(); err != nil {
		return nil, err
	}
	value, ok := s.objects[aws.ToString(input.Bucket)][aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("the specified key does not exist")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(value)),
		ContentLength: aws.Int64(int64(len(value))),
	}, nil
}

func (s *S3Server) PutObject(
	ctx context.Context,
	input *s3.PutObjectInput,
	opts ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	bucket := aws.ToString(input.Bucket)
	if s.objects[bucket] == nil {
		s.objects[bucket] = make(map[string]string)
	}
	s.objects[bucket][aws.ToString(input.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (s *S3Server) PutBucketPolicy(
	ctx context.Context,
	input *s3.PutBucketPolicyInput,
	opts ...func(*s3.Options),
) (*s3.PutBucketPolicyOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(); err != nil {
		return nil, err
	}
	s.policies[aws.ToString(input.Bucket)] = aws.ToString(input.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}
