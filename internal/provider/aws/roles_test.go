// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aws_test

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/core/naming"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	awstesting "github.com/ondemandenv/contracts/internal/provider/aws/testing"
)

type rolesSuite struct {
	server      *awstesting.IAMServer
	provisioner *aws.RoleProvisioner
}

var _ = gc.Suite(&rolesSuite{})

func (s *rolesSuite) SetUpTest(c *gc.C) {
	s.server = awstesting.NewIAMServer("111")
	s.provisioner = aws.NewRoleProvisioner(s.server, "contract-values")
}

func (s *rolesSuite) TestEnsureRole(c *gc.C) {
	id := naming.Identity{Service: "embedding", Component: "processor", AccountID: "111", Region: "us-east-1"}

	roleARN, err := s.provisioner.EnsureRole(context.Background(), id)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(roleARN, gc.Equals, id.RoleARN())
	c.Check(arn.IsARN(roleARN), jc.IsTrue)

	role, ok := s.server.Role("processor-111-us-east-1")
	c.Assert(ok, jc.IsTrue)
	c.Check(*role.Path, gc.Equals, "/embedding/")
	c.Check(*role.Tags[0].Value, gc.Equals, "embedding")

	again, err := s.provisioner.EnsureRole(context.Background(), id)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(again, gc.Equals, roleARN)

	got, err := naming.IdentityFromARN(roleARN)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(got, gc.Equals, id)
}

func (s *rolesSuite) TestRoleNameClaimedByAnotherService(c *gc.C) {
	_, err := s.provisioner.EnsureRole(context.Background(), naming.Identity{
		Service: "embedding", Component: "processor", AccountID: "111", Region: "us-east-1",
	})
	c.Assert(err, jc.ErrorIsNil)

	_, err = s.provisioner.EnsureRole(context.Background(), naming.Identity{
		Service: "document-processing", Component: "processor", AccountID: "111", Region: "us-east-1",
	})
	c.Check(err, jc.ErrorIs, coreerrors.NamingConventionViolation)
	c.Check(err, gc.ErrorMatches, `role name "processor-111-us-east-1" claimed under path "/embedding/", expected "/document-processing/": naming convention violation`)
}

func (s *rolesSuite) TestEnsureRoleInvalidIdentity(c *gc.C) {
	_, err := s.provisioner.EnsureRole(context.Background(), naming.Identity{Service: "embedding", Component: "Processor", AccountID: "111", Region: "us-east-1"})
	c.Check(err, gc.ErrorMatches, `identity component "Processor" not valid`)
}

func (s *rolesSuite) TestProvisionEnver(c *gc.C) {
	arns, err := s.provisioner.ProvisionEnver(context.Background(), documentsEnver(c))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(arns, jc.DeepEquals, []string{"arn:aws:iam::111:role/document-ingestion/uploader-111-us-east-1"})

	inline, ok := s.server.RolePolicy("uploader-111-us-east-1")
	c.Assert(ok, jc.IsTrue)
	c.Check(*inline.PolicyName, gc.Equals, "contracts-value-read")

	var policy aws.PolicyDocument
	c.Assert(json.Unmarshal([]byte(*inline.PolicyDocument), &policy), jc.ErrorIsNil)
	c.Check(policy.Statement[0].Resource, jc.DeepEquals, []string{"arn:aws:s3:::contract-values/values/document-ingestion/dev/*"})
	c.Check(policy.Statement[0].Principal, gc.HasLen, 0)
}

func (s *rolesSuite) TestProvisionPermissionDenied(c *gc.C) {
	s.server.ProducePermissionError(true)
	_, err := s.provisioner.ProvisionEnver(context.Background(), documentsEnver(c))
	c.Check(err, gc.ErrorMatches, `provisioning "document-ingestion/dev": creating role for ".*": .*AccessDenied.*`)
}
