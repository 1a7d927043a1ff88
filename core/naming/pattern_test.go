// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package naming_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/ondemandenv/contracts/core/naming"
)

type patternSuite struct{}

var _ = gc.Suite(&patternSuite{})

func (s *patternSuite) TestHierarchicalTrust(c *gc.C) {
	pattern, err := naming.ParseTrustPattern("embedding/*", "111", "")
	c.Assert(err, jc.ErrorIsNil)

	tests := []struct {
		name  string
		match bool
	}{
		{name: "embedding/processor-111-us-east-1", match: true},
		{name: "embedding/s3-poller-111-us-east-1", match: true},
		{name: "embedding/s3-poller-111-eu-west-2", match: true},
		{name: "document-processing/processor-111-us-east-1", match: false},
		{name: "embedding/processor-222-us-east-1", match: false},
		{name: "embedding-extra/processor-111-us-east-1", match: false},
		{name: "embedding/garbage", match: false},
	}
	for i, test := range tests {
		c.Logf("test %d: %q", i, test.name)
		c.Check(pattern.MatchesName(test.name), gc.Equals, test.match)
	}
}

func (s *patternSuite) TestRegionScope(c *gc.C) {
	pattern, err := naming.ParseTrustPattern("embedding/*", "111", "us-east-1")
	c.Assert(err, jc.ErrorIsNil)

	c.Check(pattern.MatchesName("embedding/processor-111-us-east-1"), jc.IsTrue)
	c.Check(pattern.MatchesName("embedding/processor-111-us-west-2"), jc.IsFalse)
}

func (s *patternSuite) TestUnscopedPatternMatchesNothing(c *gc.C) {
	pattern := naming.TrustPattern{Service: "embedding"}
	c.Check(pattern.MatchesName("embedding/processor-111-us-east-1"), jc.IsFalse)
	c.Check(pattern.Validate(), gc.ErrorMatches, `trust pattern "embedding/\*" without account scope not valid`)
}

func (s *patternSuite) TestParseTrustPatternInvalid(c *gc.C) {
	_, err := naming.ParseTrustPattern("embedding/processor-111-us-east-1", "111", "")
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	_, err = naming.ParseTrustPattern("embedding/*", "", "")
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	_, err = naming.ParseTrustPattern("embedding/*", "111", "moon")
	c.Check(err, gc.ErrorMatches, `trust pattern region "moon" not valid`)
}

func (s *patternSuite) TestNamespacePattern(c *gc.C) {
	ns, err := naming.NewNamespace("embedding")
	c.Assert(err, jc.ErrorIsNil)
	pattern := ns.TrustPattern("111", "")
	c.Check(pattern.String(), gc.Equals, "embedding/*")

	id, err := ns.Identity("processor", "111", "us-east-1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(pattern.Matches(id), jc.IsTrue)
}

func (s *patternSuite) TestRoleNamePattern(c *gc.C) {
	c.Check(naming.TrustPattern{Service: "embedding", AccountID: "111"}.RoleNamePattern(), gc.Equals, "embedding/*-111-*")
	c.Check(naming.TrustPattern{Service: "embedding", AccountID: "111", Region: "us-east-1"}.RoleNamePattern(), gc.Equals, "embedding/*-111-us-east-1")
}
