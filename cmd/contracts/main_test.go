// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/ondemandenv/contracts/cmd"
	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/provider/aws"
	awstesting "github.com/ondemandenv/contracts/internal/provider/aws/testing"
	"github.com/ondemandenv/contracts/internal/registry"
)

type mainSuite struct {
	testing.IsolationSuite

	dir string
	s3  *awstesting.S3Server
	iam *awstesting.IAMServer
}

var _ = gc.Suite(&mainSuite{})

func (s *mainSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.dir = c.MkDir()
	s.s3 = awstesting.NewS3Server()
	s.iam = awstesting.NewIAMServer("111")
	s.PatchEnvironment(config.AccountIDKey, "111")
	s.PatchEnvironment(config.RegionKey, "us-east-1")
}

func (s *mainSuite) run(c *gc.C, args ...string) (int, string, string) {
	return s.runApp(c, s.newApp(&registry.Guard{}), args...)
}

func (s *mainSuite) newApp(guard *registry.Guard) *app {
	a := newApp(guard)
	a.newClients = func(context.Context, string) (aws.S3Client, aws.IAMClient, error) {
		return s.s3, s.iam, nil
	}
	return a
}

func (s *mainSuite) runApp(c *gc.C, a *app, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	ctx := &cmd.Context{
		Dir:    s.dir,
		Stdin:  &bytes.Buffer{},
		Stdout: &stdout,
		Stderr: &stderr,
	}
	code := cmd.Main(NewContractsCommand(a), ctx, args)
	return code, stdout.String(), stderr.String()
}

func (s *mainSuite) TestHelp(c *gc.C) {
	code, stdout, _ := s.run(c)
	c.Assert(code, gc.Equals, 0)
	c.Check(stdout, jc.Contains, "usage: contracts <command> ...")
	for _, name := range []string{"order", "graph", "dependents", "trust", "policy", "provision", "resolve"} {
		c.Check(stdout, jc.Contains, "    "+name)
	}

	code, stdout, _ = s.run(c, "help", "trust")
	c.Assert(code, gc.Equals, 0)
	c.Check(stdout, jc.Contains, "usage: contracts trust <pattern> <identity>")
	c.Check(stdout, jc.Contains, "--account")
}

func (s *mainSuite) TestRegistryConstructedOnce(c *gc.C) {
	guard := &registry.Guard{}
	a := s.newApp(guard)
	c.Check(guard.Metrics, gc.Equals, a.registryMetrics)

	code, _, stderr := s.runApp(c, a, "order")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	first, err := guard.Instance()
	c.Assert(err, jc.ErrorIsNil)

	code, _, stderr = s.runApp(c, a, "order")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, jc.Contains, "contracts registry already constructed: duplicate registration")
	instance, err := guard.Instance()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(instance, gc.Equals, first)
}

func (s *mainSuite) TestUnknownCommand(c *gc.C) {
	code, _, stderr := s.run(c, "bogus")
	c.Check(code, gc.Equals, 2)
	c.Check(stderr, gc.Equals, "ERROR unrecognized command: contracts bogus\n")
}

func (s *mainSuite) TestOrder(c *gc.C) {
	code, stdout, stderr := s.run(c, "order")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, gc.Equals, `1. document-processing
2. embedding (requires document-processing)
3. vector-storage (requires embedding)
4. document-ingestion (requires document-processing, embedding, vector-storage)
5. knowledge-retrieval (requires vector-storage)
6. web-ui (requires knowledge-retrieval, document-ingestion)
`)
}

func (s *mainSuite) TestOrderFromEnvFile(c *gc.C) {
	// Values already in the environment take precedence over the file.
	c.Assert(os.Unsetenv(config.AccountIDKey), jc.ErrorIsNil)
	c.Assert(os.Unsetenv(config.RegionKey), jc.ErrorIsNil)
	envFile := filepath.Join(s.dir, "prod.env")
	err := os.WriteFile(envFile, []byte("CONTRACTS_ACCOUNT_ID=333\nCONTRACTS_REGION=eu-west-2\n"), 0644)
	c.Assert(err, jc.ErrorIsNil)

	code, stdout, stderr := s.run(c, "--env-file", "prod.env", "order")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, jc.HasPrefix, "1. document-processing\n")
}

func (s *mainSuite) TestMissingConfiguration(c *gc.C) {
	s.PatchEnvironment(config.AccountIDKey, "")
	code, _, stderr := s.run(c, "order")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, jc.Contains, "CONTRACTS_ACCOUNT_ID: missing configuration")
}

func (s *mainSuite) TestManualOrderOutOfOrder(c *gc.C) {
	s.PatchEnvironment(config.WiringOrderKey, "embedding,document-processing,vector-storage,document-ingestion,knowledge-retrieval,web-ui")
	code, _, stderr := s.run(c, "order")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, jc.Contains, `build "embedding" wired before required build "document-processing"`)
	c.Check(stderr, jc.Contains, "unresolved reference")
}

func (s *mainSuite) TestGraphJSON(c *gc.C) {
	code, stdout, stderr := s.run(c, "graph", "--format", "json")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))

	var out graphOutput
	c.Assert(json.Unmarshal([]byte(stdout), &out), jc.ErrorIsNil)
	c.Check(out.Order, gc.HasLen, 6)
	c.Assert(out.Builds, gc.HasLen, 6)
	ingestion := out.Builds[0]
	c.Check(ingestion.Name, gc.Equals, "document-ingestion")
	c.Check(ingestion.Repository, gc.Equals, "ondemandenv/document-ingestion")
	c.Assert(ingestion.Envers, gc.HasLen, 2)
	dev := ingestion.Envers[0]
	c.Check(dev.Key, gc.Equals, "document-ingestion/dev")
	c.Check(dev.Identities, jc.DeepEquals, []string{"document-ingestion/uploader-111-us-east-1"})
	c.Check(dev.Producers[0].Root, gc.Equals, "documents")
	c.Check(dev.Producers[0].Late, jc.IsFalse)
	c.Check(dev.Producers[0].Nodes[1], jc.DeepEquals, nodeOutput{
		Address: "document-ingestion/dev:documents/documentBucket",
		Kind:    "resource",
		Grants:  []string{"document-processing/*-111-us-east-1", "web-ui/*-111-us-east-1"},
	})
	for _, consumer := range dev.Consumers {
		c.Check(consumer.Propagation, gc.Equals, "none")
		c.Assert(consumer.Fallback, gc.NotNil)
		c.Check(*consumer.Fallback, gc.Equals, "pending")
	}
}

func (s *mainSuite) TestGraphToFile(c *gc.C) {
	code, stdout, stderr := s.run(c, "graph", "-o", "graph.yaml")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, gc.Equals, "")

	data, err := os.ReadFile(filepath.Join(s.dir, "graph.yaml"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), jc.HasPrefix, "order:\n    - document-processing\n")
}

func (s *mainSuite) TestDependents(c *gc.C) {
	code, stdout, stderr := s.run(c, "dependents", "document-processing/dev:processedContent")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, jc.Contains, "  embedding/dev->document-processing/dev:processedContent/processedContentBucket (direct)\n")
	c.Check(stdout, jc.Contains, "redeploy:\n  embedding/dev\n")
	c.Check(stdout, gc.Not(jc.Contains), "embedding/prod")
}

func (s *mainSuite) TestDependentsBadAddress(c *gc.C) {
	code, _, stderr := s.run(c, "dependents", "nowhere")
	c.Check(code, gc.Equals, 2)
	c.Check(stderr, jc.Contains, `address "nowhere", must be <build>/<enver>:<path> not valid`)
}

func (s *mainSuite) TestTrust(c *gc.C) {
	code, stdout, _ := s.run(c, "trust", "--account", "111", "embedding/*", "embedding/s3-poller-111-us-east-1")
	c.Check(code, gc.Equals, 0)
	c.Check(stdout, gc.Equals, "embedding/s3-poller-111-us-east-1 is trusted by embedding/*-111-*\n")

	code, stdout, stderr := s.run(c, "trust", "--account", "111", "embedding/*", "document-processing/processor-111-us-east-1")
	c.Check(code, gc.Equals, 1)
	c.Check(stdout, jc.Contains, "is not trusted")
	c.Check(stderr, gc.Equals, "")

	code, _, stderr = s.run(c, "trust", "embedding/*", "embedding/processor-111-us-east-1")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, gc.Matches, `ERROR trust pattern .* not valid\n`)
}

func (s *mainSuite) TestPolicy(c *gc.C) {
	code, stdout, stderr := s.run(c, "policy", "document-processing/dev:processedContent/processedContentBucket")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))

	var policy aws.PolicyDocument
	c.Assert(json.Unmarshal([]byte(stdout), &policy), jc.ErrorIsNil)
	c.Assert(policy.Statement, gc.HasLen, 1)
	c.Check(policy.Statement[0].Sid, gc.Equals, "TrustEmbedding")
	c.Check(policy.Statement[0].Resource, jc.DeepEquals, []string{
		"arn:aws:s3:::document-processing-dev-processed-content-bucket",
		"arn:aws:s3:::document-processing-dev-processed-content-bucket/*",
	})
}

func (s *mainSuite) TestProvision(c *gc.C) {
	s.PatchEnvironment(config.ValueBucketKey, "contract-values")
	code, stdout, stderr := s.run(c, "provision", "document-processing/dev")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, gc.Equals, `role arn:aws:iam::111:role/document-processing/content-processor-111-us-east-1
role arn:aws:iam::111:role/document-processing/event-handler-111-us-east-1
bucket policy document-processing-dev-processed-content-bucket
`)
	_, ok := s.iam.RolePolicy("event-handler-111-us-east-1")
	c.Check(ok, jc.IsTrue)
	_, ok = s.s3.Policy("document-processing-dev-processed-content-bucket")
	c.Check(ok, jc.IsTrue)
}

func (s *mainSuite) TestResolveFallsBack(c *gc.C) {
	s.PatchEnvironment(config.ValueBucketKey, "contract-values")
	code, stdout, stderr := s.run(c, "resolve", "--format", "json", "document-ingestion/dev")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))

	var values []contract.ResolvedValue
	c.Assert(json.Unmarshal([]byte(stdout), &values), jc.ErrorIsNil)
	c.Assert(values, gc.HasLen, 3)
	for _, value := range values {
		c.Check(value.Origin, gc.Equals, contract.OriginFallback)
		c.Check(value.Value, gc.Equals, "pending")
	}
}

func (s *mainSuite) TestResolveShared(c *gc.C) {
	s.PatchEnvironment(config.ValueBucketKey, "contract-values")
	key := contract.EdgeKey("document-ingestion/dev->document-processing/dev:processingStatus/statusApi")
	source, err := aws.NewS3Source(aws.S3SourceConfig{Client: s.s3, Bucket: "contract-values", Clock: clock.WallClock})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(source.Publish(context.Background(), key, "https://status.processing.dev"), jc.ErrorIsNil)

	code, stdout, stderr := s.run(c, "resolve", "--format", "json", "document-ingestion/dev")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	var values []contract.ResolvedValue
	c.Assert(json.Unmarshal([]byte(stdout), &values), jc.ErrorIsNil)
	c.Assert(values, gc.HasLen, 3)
	c.Check(values[0].Key, gc.Equals, key)
	c.Check(values[0].Value, gc.Equals, "https://status.processing.dev")
	c.Check(values[0].Origin, gc.Equals, contract.OriginShared)
}

func (s *mainSuite) TestResolveNotDeployed(c *gc.C) {
	s.PatchEnvironment(config.ValueBucketKey, "contract-values")
	code, _, stderr := s.run(c, "resolve", "embedding/dev")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, jc.Contains, "value not deployed")
}

func (s *mainSuite) TestResolveWithoutValueBucket(c *gc.C) {
	code, _, stderr := s.run(c, "resolve", "embedding/dev")
	c.Check(code, gc.Equals, 1)
	c.Check(stderr, gc.Equals, "ERROR CONTRACTS_VALUE_BUCKET: missing configuration\n")
}

func (s *mainSuite) TestMetrics(c *gc.C) {
	code, stdout, stderr := s.run(c, "--metrics", "order")
	c.Assert(code, gc.Equals, 0, gc.Commentf("%s", stderr))
	c.Check(stdout, jc.Contains, "contracts_registry_builds 6\n")
	c.Check(stdout, jc.Contains, `contracts_registry_environments{build="embedding",mutability="immutable"} 1`)
}
