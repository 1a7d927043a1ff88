// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// Embeddings is the output of the embedding build.
type Embeddings struct {
	EmbeddingsBucket *contract.Node
	EmbeddingSchema  *contract.Node
}

const (
	embeddingsRoot      = "embeddings"
	embeddingStatusRoot = "embeddingStatus"
)

func embeddingsSpec(enver *contract.Enver) contract.NodeSpec {
	return contract.Group(embeddingsRoot,
		contract.Leaf("embeddingsBucket", grant(VectorStorageName, enver)),
		contract.Schema("embeddingSchema"),
	)
}

func newEmbeddings(p *contract.Producer) Embeddings {
	return Embeddings{
		EmbeddingsBucket: p.MustLookup("embeddingsBucket"),
		EmbeddingSchema:  p.MustLookup("embeddingSchema"),
	}
}

// EmbeddingsOf reads the embeddings producer of the embedding environment
// paired with enver.
func EmbeddingsOf(ctx *registry.WiringContext, enver *contract.Enver) (Embeddings, error) {
	p, err := ctx.Producer(peer(EmbeddingName, enver), embeddingsRoot)
	if err != nil {
		return Embeddings{}, errors.Trace(err)
	}
	return newEmbeddings(p), nil
}

// Embedding turns processed content into vectors. Its processor polls the
// processed content bucket, which trusts every identity of the embedding
// namespace rather than these exact identities.
type Embedding struct {
	pipelineBuild

	embeddings map[string]Embeddings
}

// NewEmbedding is a registry.Factory.
func NewEmbedding(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, EmbeddingName, "v3.1.0", DocumentProcessingName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b := &Embedding{
		pipelineBuild: base,
		embeddings:    make(map[string]Embeddings),
	}
	if err := b.declareIdentities("processor", "s3-poller"); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// Embeddings returns the embeddings producer of environment name, once
// wired.
func (b *Embedding) Embeddings(name string) (Embeddings, error) {
	embeddings, ok := b.embeddings[name]
	if !ok {
		return Embeddings{}, errors.NotFoundf("embeddings of environment %q", name)
	}
	return embeddings, nil
}

// WireConsuming is part of the registry.Build interface.
func (b *Embedding) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		processed, err := ProcessedContentOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{},
			processed.ProcessedContentBucket,
			processed.ProcessedContentSchema,
		); err != nil {
			return errors.Trace(err)
		}

		p, err := enver.AddProducer(embeddingsSpec(enver))
		if err != nil {
			return errors.Trace(err)
		}
		b.embeddings[enver.Name()] = newEmbeddings(p)
		_, err = enver.AddProducer(statusSpec(embeddingStatusRoot))
		return errors.Trace(err)
	})
}
