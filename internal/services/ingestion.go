// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// Documents is the producer through which uploaded documents enter the
// pipeline. It exists as soon as document-ingestion is constructed.
type Documents struct {
	DocumentBucket         *contract.Node
	DocumentEventBus       *contract.Node
	DocumentMetadataSchema *contract.Node
}

const documentsRoot = "documents"

func documentsSpec(enver *contract.Enver) contract.NodeSpec {
	return contract.Group(documentsRoot,
		contract.Leaf("documentBucket",
			grant(DocumentProcessingName, enver),
			grant(WebUIName, enver),
		),
		contract.Leaf("documentEventBus", grant(DocumentProcessingName, enver)),
		contract.Schema("documentMetadataSchema"),
	)
}

func newDocuments(p *contract.Producer) Documents {
	return Documents{
		DocumentBucket:         p.MustLookup("documentBucket"),
		DocumentEventBus:       p.MustLookup("documentEventBus"),
		DocumentMetadataSchema: p.MustLookup("documentMetadataSchema"),
	}
}

// DocumentsOf reads the documents producer of the ingestion environment
// paired with enver.
func DocumentsOf(ctx *registry.WiringContext, enver *contract.Enver) (Documents, error) {
	p, err := ctx.Producer(peer(DocumentIngestionName, enver), documentsRoot)
	if err != nil {
		return Documents{}, errors.Trace(err)
	}
	return newDocuments(p), nil
}

const ingestionStatusRoot = "ingestionStatus"

// IngestionStatusOf reads the status producer of the ingestion environment
// paired with enver. It only exists once document-ingestion wired.
func IngestionStatusOf(ctx *registry.WiringContext, enver *contract.Enver) (Status, error) {
	p, err := ctx.Producer(peer(DocumentIngestionName, enver), ingestionStatusRoot)
	if err != nil {
		return Status{}, errors.Trace(err)
	}
	return newStatus(p), nil
}

// DocumentIngestion accepts documents and reports the status of the whole
// pipeline, aggregated from every downstream build.
type DocumentIngestion struct {
	pipelineBuild

	documents map[string]Documents
	status    map[string]Status
}

// NewDocumentIngestion is a registry.Factory.
func NewDocumentIngestion(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, DocumentIngestionName, "v2.4.0",
		DocumentProcessingName, EmbeddingName, VectorStorageName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	b := &DocumentIngestion{
		pipelineBuild: base,
		documents:     make(map[string]Documents),
		status:        make(map[string]Status),
	}
	if err := b.declareIdentities("uploader"); err != nil {
		return nil, errors.Trace(err)
	}
	err = b.eachEnver(func(enver *contract.Enver) error {
		p, err := enver.AddProducer(documentsSpec(enver))
		if err != nil {
			return errors.Trace(err)
		}
		b.documents[enver.Name()] = newDocuments(p)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// Documents returns the documents producer of environment name.
func (b *DocumentIngestion) Documents(name string) (Documents, error) {
	documents, ok := b.documents[name]
	if !ok {
		return Documents{}, errors.NotFoundf("documents of environment %q", name)
	}
	return documents, nil
}

// Status returns the status producer of environment name.
func (b *DocumentIngestion) Status(name string) (Status, error) {
	status, ok := b.status[name]
	if !ok {
		return Status{}, errors.NotFoundf("status of environment %q", name)
	}
	return status, nil
}

// WireConsuming is part of the registry.Build interface. The status of
// downstream builds is informational: it never redeploys ingestion, and
// falls back to "pending" until the downstream build first deployed.
func (b *DocumentIngestion) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		args := contract.WithFallback("pending")
		args.Propagation = contract.PropagateNone
		for _, downstream := range []struct {
			build string
			root  string
		}{
			{DocumentProcessingName, processingStatusRoot},
			{EmbeddingName, embeddingStatusRoot},
			{VectorStorageName, vectorStatusRoot},
		} {
			p, err := ctx.Producer(peer(downstream.build, enver), downstream.root)
			if err != nil {
				return errors.Trace(err)
			}
			if err := consumeAll(ctx, enver, args, newStatus(p).StatusAPI); err != nil {
				return errors.Trace(err)
			}
		}
		p, err := enver.AddProducer(statusSpec(ingestionStatusRoot))
		if err != nil {
			return errors.Trace(err)
		}
		b.status[enver.Name()] = newStatus(p)
		return nil
	})
}
