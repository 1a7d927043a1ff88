// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// Retrieval is the question answering API.
type Retrieval struct {
	RetrievalAPI *contract.Node
}

const retrievalRoot = "retrieval"

// RetrievalOf reads the retrieval producer of the knowledge-retrieval
// environment paired with enver.
func RetrievalOf(ctx *registry.WiringContext, enver *contract.Enver) (Retrieval, error) {
	p, err := ctx.Producer(peer(KnowledgeRetrievalName, enver), retrievalRoot)
	if err != nil {
		return Retrieval{}, errors.Trace(err)
	}
	return Retrieval{RetrievalAPI: p.MustLookup("retrievalApi")}, nil
}

// KnowledgeRetrieval answers queries over the vector index.
type KnowledgeRetrieval struct {
	pipelineBuild
}

// NewKnowledgeRetrieval is a registry.Factory.
func NewKnowledgeRetrieval(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, KnowledgeRetrievalName, "v0.8.0", VectorStorageName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b := &KnowledgeRetrieval{pipelineBuild: base}
	if err := b.declareIdentities("retriever"); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// WireConsuming is part of the registry.Build interface.
func (b *KnowledgeRetrieval) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		index, err := VectorIndexOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{}, index.QueryAPI); err != nil {
			return errors.Trace(err)
		}
		_, err = enver.AddProducer(contract.Group(retrievalRoot,
			contract.Leaf("retrievalApi", grant(WebUIName, enver)),
		))
		return errors.Trace(err)
	})
}
