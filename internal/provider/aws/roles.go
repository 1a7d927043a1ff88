// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aws

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/core/naming"
)

const (
	maxRoleNameLength = 64

	// valueReadPolicyName names the inline policy letting an identity read
	// the values shared with its environment.
	valueReadPolicyName = "contracts-value-read"

	tagService = "contracts:service"
	tagEnver   = "contracts:enver"
)

// RoleProvisioner creates the IAM roles backing declared identities.
type RoleProvisioner struct {
	client      IAMClient
	valueBucket string
	valuePrefix string
}

// NewRoleProvisioner returns a RoleProvisioner. When valueBucket is set,
// provisioned roles are allowed to read the values shared with their
// environment from it.
func NewRoleProvisioner(client IAMClient, valueBucket string) *RoleProvisioner {
	return &RoleProvisioner{
		client:      client,
		valueBucket: valueBucket,
		valuePrefix: DefaultValuePrefix,
	}
}

// EnsureRole creates the role of id under the service's path, or returns
// the existing one. It returns the role ARN. Role names are unique per
// account, so a role of the same name under another service's path is a
// NamingConventionViolation.
func (p *RoleProvisioner) EnsureRole(ctx context.Context, id naming.Identity, tags ...types.Tag) (string, error) {
	if err := id.Validate(); err != nil {
		return "", errors.Trace(err)
	}
	if len(id.Name()) > maxRoleNameLength {
		return "", errors.NotValidf("role name %q longer than %d characters", id.Name(), maxRoleNameLength)
	}
	tags = append([]types.Tag{{
		Key:   aws.String(tagService),
		Value: aws.String(id.Service),
	}}, tags...)

	out, err := p.client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(id.Name()),
		Path:                     aws.String(id.RolePath()),
		AssumeRolePolicyDocument: aws.String(identityAssumePolicy),
		Description:              aws.String(fmt.Sprintf("contracts identity %s", id)),
		Tags:                     tags,
	})
	var alreadyExists *types.EntityAlreadyExistsException
	if errors.As(err, &alreadyExists) {
		logger.Debugf("role for %q already exists", id)
		got, err := p.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(id.Name())})
		if err != nil {
			return "", errors.Annotatef(err, "getting existing role for %q", id)
		}
		if rolePath := aws.ToString(got.Role.Path); rolePath != id.RolePath() {
			return "", errors.Annotatef(coreerrors.NamingConventionViolation, "role name %q claimed under path %q, expected %q", id.Name(), rolePath, id.RolePath())
		}
		return aws.ToString(got.Role.Arn), nil
	}
	if err != nil {
		return "", errors.Annotatef(err, "creating role for %q", id)
	}
	logger.Infof("created role %q", aws.ToString(out.Role.Arn))
	return aws.ToString(out.Role.Arn), nil
}

// ProvisionEnver ensures the role of every identity declared by enver and
// returns their ARNs in declaration order.
func (p *RoleProvisioner) ProvisionEnver(ctx context.Context, enver *contract.Enver) ([]string, error) {
	enverTag := types.Tag{
		Key:   aws.String(tagEnver),
		Value: aws.String(string(enver.Key())),
	}
	var arns []string
	for _, id := range enver.Identities() {
		roleARN, err := p.EnsureRole(ctx, id, enverTag)
		if err != nil {
			return arns, errors.Annotatef(err, "provisioning %q", enver.Key())
		}
		if p.valueBucket != "" {
			if err := p.putValueReadPolicy(ctx, id, enver); err != nil {
				return arns, errors.Annotatef(err, "provisioning %q", enver.Key())
			}
		}
		arns = append(arns, roleARN)
	}
	return arns, nil
}

// ValueReadPolicy returns the inline policy letting the identities of enver
// read the values published for its consumers.
func (p *RoleProvisioner) ValueReadPolicy(enver *contract.Enver) PolicyDocument {
	partition := naming.Partition(enver.Region())
	key := path.Join(p.valuePrefix, string(enver.Key()), "*")
	return PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Effect:   "Allow",
			Action:   []string{"s3:GetObject"},
			Resource: []string{fmt.Sprintf("arn:%s:s3:::%s/%s", partition, p.valueBucket, key)},
		}},
	}
}

func (p *RoleProvisioner) putValueReadPolicy(ctx context.Context, id naming.Identity, enver *contract.Enver) error {
	_, err := p.client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(id.Name()),
		PolicyName:     aws.String(valueReadPolicyName),
		PolicyDocument: aws.String(p.ValueReadPolicy(enver).String()),
	})
	return errors.Annotatef(err, "putting value read policy on %q", id)
}
