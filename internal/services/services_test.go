// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
	"github.com/ondemandenv/contracts/internal/services"
)

type servicesSuite struct {
	cfg config.Config
}

var _ = gc.Suite(&servicesSuite{})

func (s *servicesSuite) SetUpTest(c *gc.C) {
	s.cfg = config.Config{
		AccountID:     "111",
		Region:        "us-east-1",
		DevAccountID:  "111",
		ProdAccountID: "222",
	}
}

func (s *servicesSuite) register(c *gc.C) *registry.Registry {
	var guard registry.Guard
	r, err := services.Register(&guard, s.cfg)
	c.Assert(err, jc.ErrorIsNil)
	return r
}

func (s *servicesSuite) TestComputedOrder(c *gc.C) {
	r := s.register(c)
	c.Check(r.Order(), jc.DeepEquals, []string{
		services.DocumentProcessingName,
		services.EmbeddingName,
		services.VectorStorageName,
		services.DocumentIngestionName,
		services.KnowledgeRetrievalName,
		services.WebUIName,
	})
	for _, build := range r.Builds() {
		state, err := r.BuildState(build.Name())
		c.Assert(err, jc.ErrorIsNil)
		c.Check(state, gc.Equals, registry.BuildWired)
	}
}

func (s *servicesSuite) TestEnvers(c *gc.C) {
	r := s.register(c)
	c.Check(r.Envers(), gc.HasLen, 12)

	dev, err := r.Enver(contract.NewEnverKey(services.EmbeddingName, services.Dev))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(dev.AccountID(), gc.Equals, "111")
	c.Check(dev.Mutability(), gc.Equals, contract.Mutable)
	c.Check(dev.Revision(), gc.Equals, contract.BranchRevision("main"))

	prod, err := r.Enver(contract.NewEnverKey(services.EmbeddingName, services.Prod))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(prod.AccountID(), gc.Equals, "222")
	c.Check(prod.Mutability(), gc.Equals, contract.Immutable)
	c.Check(prod.Revision().Kind, gc.Equals, contract.TagRevisionKind)
}

func (s *servicesSuite) TestConsumersStayWithinEnvironment(c *gc.C) {
	r := s.register(c)
	c.Check(r.Consumers(), gc.HasLen, 28)
	for _, consumer := range r.Consumers() {
		c.Check(consumer.Owner().Name(), gc.Equals, consumer.Target().Owner().Name(), gc.Commentf("%s", consumer))
	}
	c.Check(r.Producers(), gc.HasLen, 20)
}

func (s *servicesSuite) TestEmbeddingConsumesProcessedContent(c *gc.C) {
	r := s.register(c)
	b, err := r.Build(services.EmbeddingName)
	c.Assert(err, jc.ErrorIsNil)
	embedding := b.(*services.Embedding)

	var dev *contract.Enver
	for _, enver := range embedding.Envers() {
		if enver.Name() == services.Dev {
			dev = enver
		}
	}
	consumers, err := dev.Consumers()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(consumers, gc.HasLen, 2)
	c.Check(consumers[0].Key(), gc.Equals,
		contract.EdgeKey("embedding/dev->document-processing/dev:processedContent/processedContentBucket"))
	c.Check(consumers[1].Target().IsSchemaArtifact(), jc.IsTrue)

	embeddings, err := embedding.Embeddings(services.Dev)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(embeddings.EmbeddingsBucket.Address().String(), gc.Equals, "embedding/dev:embeddings/embeddingsBucket")
	c.Check(embeddings.EmbeddingsBucket.Producer().Late(), jc.IsTrue)

	_, err = embedding.Embeddings("staging")
	c.Check(err, jc.Satisfies, errors.IsNotFound)
}

func (s *servicesSuite) TestHierarchicalTrust(c *gc.C) {
	r := s.register(c)
	b, err := r.Build(services.DocumentProcessingName)
	c.Assert(err, jc.ErrorIsNil)
	processed, err := b.(*services.DocumentProcessing).ProcessedContent(services.Dev)
	c.Assert(err, jc.ErrorIsNil)

	grants := processed.ProcessedContentBucket.Grants()
	c.Assert(grants, gc.HasLen, 1)
	grant := grants[0]
	c.Check(grant.String(), gc.Equals, "embedding/*")

	embedding, err := r.Enver(contract.NewEnverKey(services.EmbeddingName, services.Dev))
	c.Assert(err, jc.ErrorIsNil)
	for _, id := range embedding.Identities() {
		c.Check(grant.Matches(id), jc.IsTrue, gc.Commentf("%s", id))
	}
	c.Check(grant.MatchesName("document-processing/processor-111-us-east-1"), jc.IsFalse)
	c.Check(grant.MatchesName("embedding/processor-222-us-east-1"), jc.IsFalse)

	// The prod bucket trusts the prod account only.
	prodProcessed, err := b.(*services.DocumentProcessing).ProcessedContent(services.Prod)
	c.Assert(err, jc.ErrorIsNil)
	prodGrant := prodProcessed.ProcessedContentBucket.Grants()[0]
	c.Check(prodGrant.MatchesName("embedding/processor-222-us-east-1"), jc.IsTrue)
	c.Check(prodGrant.MatchesName("embedding/processor-111-us-east-1"), jc.IsFalse)
}

func (s *servicesSuite) TestRedeployTargets(c *gc.C) {
	r := s.register(c)
	addr := contract.Address{
		Enver: contract.NewEnverKey(services.DocumentIngestionName, services.Dev),
		Path:  "documents/documentBucket",
	}
	dependents, err := r.Dependents(addr)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(dependents, gc.HasLen, 2)

	targets, err := r.RedeployTargets(addr)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(targets, gc.HasLen, 1)
	c.Check(targets[0].Key(), gc.Equals, contract.NewEnverKey(services.DocumentProcessingName, services.Dev))
}

func (s *servicesSuite) TestStatusAggregationDoesNotPropagate(c *gc.C) {
	r := s.register(c)
	addr := contract.Address{
		Enver: contract.NewEnverKey(services.EmbeddingName, services.Prod),
		Path:  "embeddingStatus/statusApi",
	}
	dependents, err := r.Dependents(addr)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(dependents, gc.HasLen, 1)
	fallback, ok := dependents[0].Fallback()
	c.Check(ok, jc.IsTrue)
	c.Check(fallback, gc.Equals, "pending")

	targets, err := r.RedeployTargets(addr)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(targets, gc.HasLen, 0)
}

func (s *servicesSuite) TestWrongManualOrder(c *gc.C) {
	s.cfg.WiringOrder = []string{
		services.DocumentProcessingName,
		services.VectorStorageName,
		services.EmbeddingName,
		services.DocumentIngestionName,
		services.KnowledgeRetrievalName,
		services.WebUIName,
	}
	var guard registry.Guard
	_, err := services.Register(&guard, s.cfg)
	c.Check(err, jc.ErrorIs, coreerrors.UnresolvedReference)
	c.Check(err, gc.ErrorMatches, `build "vector-storage" wired before required build "embedding": unresolved reference`)
}

func (s *servicesSuite) TestMissingConfiguration(c *gc.C) {
	var guard registry.Guard
	_, err := services.Register(&guard, config.Config{Region: "us-east-1"})
	c.Check(err, jc.ErrorIs, coreerrors.MissingConfiguration)
}
