// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// ProcessedContent is the output of document-processing. It is created
// while document-processing wires.
type ProcessedContent struct {
	ProcessedContentBucket *contract.Node
	ProcessedContentSchema *contract.Node
}

const (
	processedContentRoot = "processedContent"
	processingStatusRoot = "processingStatus"
)

func processedContentSpec(enver *contract.Enver) contract.NodeSpec {
	return contract.Group(processedContentRoot,
		contract.Leaf("processedContentBucket", grant(EmbeddingName, enver)),
		contract.Schema("processedContentSchema"),
	)
}

func newProcessedContent(p *contract.Producer) ProcessedContent {
	return ProcessedContent{
		ProcessedContentBucket: p.MustLookup("processedContentBucket"),
		ProcessedContentSchema: p.MustLookup("processedContentSchema"),
	}
}

// ProcessedContentOf reads the processed content producer of the
// processing environment paired with enver.
func ProcessedContentOf(ctx *registry.WiringContext, enver *contract.Enver) (ProcessedContent, error) {
	p, err := ctx.Producer(peer(DocumentProcessingName, enver), processedContentRoot)
	if err != nil {
		return ProcessedContent{}, errors.Trace(err)
	}
	return newProcessedContent(p), nil
}

// DocumentProcessing extracts text from uploaded documents.
type DocumentProcessing struct {
	pipelineBuild

	processed map[string]ProcessedContent
}

// NewDocumentProcessing is a registry.Factory.
func NewDocumentProcessing(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, DocumentProcessingName, "v1.9.2")
	if err != nil {
		return nil, errors.Trace(err)
	}
	b := &DocumentProcessing{
		pipelineBuild: base,
		processed:     make(map[string]ProcessedContent),
	}
	if err := b.declareIdentities("content-processor", "event-handler"); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// ProcessedContent returns the processed content producer of environment
// name, once wired.
func (b *DocumentProcessing) ProcessedContent(name string) (ProcessedContent, error) {
	processed, ok := b.processed[name]
	if !ok {
		return ProcessedContent{}, errors.NotFoundf("processed content of environment %q", name)
	}
	return processed, nil
}

// WireConsuming is part of the registry.Build interface.
func (b *DocumentProcessing) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		documents, err := DocumentsOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{},
			documents.DocumentBucket,
			documents.DocumentEventBus,
			documents.DocumentMetadataSchema,
		); err != nil {
			return errors.Trace(err)
		}

		p, err := enver.AddProducer(processedContentSpec(enver))
		if err != nil {
			return errors.Trace(err)
		}
		b.processed[enver.Name()] = newProcessedContent(p)
		_, err = enver.AddProducer(statusSpec(processingStatusRoot))
		return errors.Trace(err)
	})
}
