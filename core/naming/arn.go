// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package naming

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/juju/errors"
)

const (
	iamService   = "iam"
	rolePrefix   = "role/"
	partitionAWS = "aws"
)

// Partition returns the ARN partition of a region.
func Partition(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	}
	return partitionAWS
}

// RolePath returns the IAM path under which the identity's role is created,
// e.g. "/embedding/".
func (id Identity) RolePath() string {
	return "/" + id.Service + "/"
}

// RoleARN returns the ARN of the role backing the identity. The namespace is
// carried in the role path so prefix patterns can match it.
func (id Identity) RoleARN() string {
	return arn.ARN{
		Partition: Partition(id.Region),
		Service:   iamService,
		AccountID: id.AccountID,
		Resource:  rolePrefix + id.String(),
	}.String()
}

// RoleARNPattern returns the ARN pattern matching every role of the trusted
// namespace in the scoped account. Region scoping cannot be expressed in an
// IAM ARN, it is carried by the identity name instead and matched with
// RoleNamePattern.
func (p TrustPattern) RoleARNPattern() string {
	return arn.ARN{
		Partition: Partition(p.Region),
		Service:   iamService,
		AccountID: p.AccountID,
		Resource:  rolePrefix + p.String(),
	}.String()
}

// RoleNamePattern returns the glob matching role names covered by the
// pattern: "<service>/*-<account>-<region>" when a region is set, or
// "<service>/*-<account>-*" otherwise.
func (p TrustPattern) RoleNamePattern() string {
	region := p.Region
	if region == "" {
		region = "*"
	}
	return p.Service + "/*-" + p.AccountID + "-" + region
}

// IdentityFromARN returns the identity backing a role ARN.
func IdentityFromARN(roleARN string) (Identity, error) {
	parsed, err := arn.Parse(roleARN)
	if err != nil {
		return Identity{}, errors.NotValidf("role ARN %q", roleARN)
	}
	if parsed.Service != iamService || !strings.HasPrefix(parsed.Resource, rolePrefix) {
		return Identity{}, errors.NotValidf("role ARN %q, not an IAM role", roleARN)
	}
	id, err := ParseIdentity(strings.TrimPrefix(parsed.Resource, rolePrefix))
	if err != nil {
		return Identity{}, errors.Annotatef(err, "role ARN %q", roleARN)
	}
	if id.AccountID != parsed.AccountID {
		return Identity{}, errors.NotValidf("role ARN %q with account %q naming identity of account %q", roleARN, parsed.AccountID, id.AccountID)
	}
	return id, nil
}
