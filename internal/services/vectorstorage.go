// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// VectorIndex is the query surface of vector-storage.
type VectorIndex struct {
	QueryAPI *contract.Node
}

const (
	vectorIndexRoot  = "vectorIndex"
	vectorStatusRoot = "vectorStatus"
)

func vectorIndexSpec(enver *contract.Enver) contract.NodeSpec {
	return contract.Group(vectorIndexRoot,
		contract.Leaf("queryApi", grant(KnowledgeRetrievalName, enver)),
	)
}

// VectorIndexOf reads the vector index producer of the vector-storage
// environment paired with enver.
func VectorIndexOf(ctx *registry.WiringContext, enver *contract.Enver) (VectorIndex, error) {
	p, err := ctx.Producer(peer(VectorStorageName, enver), vectorIndexRoot)
	if err != nil {
		return VectorIndex{}, errors.Trace(err)
	}
	return VectorIndex{QueryAPI: p.MustLookup("queryApi")}, nil
}

// VectorStorage indexes embeddings.
type VectorStorage struct {
	pipelineBuild
}

// NewVectorStorage is a registry.Factory.
func NewVectorStorage(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, VectorStorageName, "v1.4.1", EmbeddingName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b := &VectorStorage{pipelineBuild: base}
	if err := b.declareIdentities("indexer"); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// WireConsuming is part of the registry.Build interface.
func (b *VectorStorage) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		embeddings, err := EmbeddingsOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{},
			embeddings.EmbeddingsBucket,
			embeddings.EmbeddingSchema,
		); err != nil {
			return errors.Trace(err)
		}
		if _, err := enver.AddProducer(vectorIndexSpec(enver)); err != nil {
			return errors.Trace(err)
		}
		_, err = enver.AddProducer(statusSpec(vectorStatusRoot))
		return errors.Trace(err)
	})
}
