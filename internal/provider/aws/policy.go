// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/core/naming"
)

const (
	maxBucketNameLength = 63

	// bucketHashLength is the length of the digest suffix of truncated
	// bucket names.
	bucketHashLength = 8
)

// PolicyDocument is an S3 bucket policy.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one statement of a PolicyDocument.
type Statement struct {
	Sid       string                       `json:"Sid,omitempty"`
	Effect    string                       `json:"Effect"`
	Principal map[string]string            `json:"Principal,omitempty"`
	Action    []string                     `json:"Action"`
	Resource  []string                     `json:"Resource"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

// String renders the policy as indented JSON.
func (p PolicyDocument) String() string {
	data, _ := json.MarshalIndent(p, "", "  ")
	return string(data)
}

// BucketName derives the bucket name backing a live resource node from its
// address: "<build>-<enver>-<path>", lower-cased with camel case split on
// dashes. Names over the S3 limit are truncated and suffixed with a digest
// of the full name, so distinct addresses keep distinct buckets.
func BucketName(node *contract.Node) string {
	addr := node.Address()
	parts := []string{addr.Enver.Build(), addr.Enver.Enver()}
	for _, segment := range strings.Split(addr.Path, "/") {
		parts = append(parts, kebab(segment))
	}
	name := strings.Join(parts, "-")
	if len(name) <= maxBucketNameLength {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	prefix := strings.TrimRight(name[:maxBucketNameLength-bucketHashLength-1], "-")
	return prefix + "-" + hex.EncodeToString(sum[:])[:bucketHashLength]
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BucketPolicy renders the read access the trust grants of node give on
// bucket. Each grant becomes one statement admitting the granted account,
// narrowed to the roles whose name falls under the granted namespace.
func BucketPolicy(bucket string, node *contract.Node) (PolicyDocument, error) {
	if node.IsSchemaArtifact() {
		return PolicyDocument{}, errors.NotValidf("bucket policy for schema artifact %q", node.Address())
	}
	grants := node.Grants()
	if len(grants) == 0 {
		return PolicyDocument{}, errors.NotFoundf("trust grants on %q", node.Address())
	}
	partition := naming.Partition(node.Owner().Region())
	bucketARN := fmt.Sprintf("arn:%s:s3:::%s", partition, bucket)

	policy := PolicyDocument{Version: policyVersion}
	for _, grant := range grants {
		if err := grant.Validate(); err != nil {
			return PolicyDocument{}, errors.Annotatef(err, "grant on %q", node.Address())
		}
		policy.Statement = append(policy.Statement, Statement{
			Sid:    "Trust" + camel(grant.Service),
			Effect: "Allow",
			Principal: map[string]string{
				"AWS": fmt.Sprintf("arn:%s:iam::%s:root", partition, grant.AccountID),
			},
			Action:   append([]string(nil), bucketReadActions...),
			Resource: []string{bucketARN, bucketARN + "/*"},
			Condition: map[string]map[string]string{
				"ArnLike": {
					"aws:PrincipalArn": fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, grant.AccountID, grant.RoleNamePattern()),
				},
			},
		})
	}
	return policy, nil
}

func camel(s string) string {
	var b strings.Builder
	for _, word := range strings.Split(s, "-") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	return b.String()
}

// PolicyApplier writes bucket policies.
type PolicyApplier struct {
	client S3Client
}

// NewPolicyApplier returns a PolicyApplier using client.
func NewPolicyApplier(client S3Client) *PolicyApplier {
	return &PolicyApplier{client: client}
}

// Apply renders the policy of node and puts it on the node's bucket,
// returning the bucket name.
func (a *PolicyApplier) Apply(ctx context.Context, node *contract.Node) (string, error) {
	bucket := BucketName(node)
	policy, err := BucketPolicy(bucket, node)
	if err != nil {
		return "", errors.Trace(err)
	}
	_, err = a.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy.String()),
	})
	if err != nil {
		return "", errors.Annotatef(err, "putting policy on bucket %q", bucket)
	}
	logger.Infof("applied %d trust statement(s) to bucket %q", len(policy.Statement), bucket)
	return bucket, nil
}

// ApplyEnver applies the policy of every granted live resource exposed by
// enver and returns the buckets written.
func (a *PolicyApplier) ApplyEnver(ctx context.Context, enver *contract.Enver) ([]string, error) {
	var buckets []string
	for _, producer := range enver.Producers() {
		for _, node := range producer.Nodes() {
			if node.IsSchemaArtifact() || len(node.Grants()) == 0 {
				continue
			}
			bucket, err := a.Apply(ctx, node)
			if err != nil {
				return buckets, errors.Trace(err)
			}
			buckets = append(buckets, bucket)
		}
	}
	return buckets, nil
}
