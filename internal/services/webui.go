// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

const webUIRoot = "webui"

// WebUI is the browser front end.
type WebUI struct {
	pipelineBuild
}

// NewWebUI is a registry.Factory.
func NewWebUI(cfg config.Config) (registry.Build, error) {
	base, err := newPipelineBuild(cfg, WebUIName, "v5.0.3", KnowledgeRetrievalName, DocumentIngestionName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &WebUI{pipelineBuild: base}, nil
}

// WireConsuming is part of the registry.Build interface. The document
// bucket is only shown for upload links and never redeploys the site.
func (b *WebUI) WireConsuming(ctx *registry.WiringContext) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		retrieval, err := RetrievalOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{}, retrieval.RetrievalAPI); err != nil {
			return errors.Trace(err)
		}

		documents, err := DocumentsOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		if err := consumeAll(ctx, enver, contract.ConsumerArgs{Propagation: contract.PropagateNone}, documents.DocumentBucket); err != nil {
			return errors.Trace(err)
		}

		status, err := IngestionStatusOf(ctx, enver)
		if err != nil {
			return errors.Trace(err)
		}
		args := contract.WithFallback("unknown")
		args.Propagation = contract.PropagateNone
		if err := consumeAll(ctx, enver, args, status.StatusAPI); err != nil {
			return errors.Trace(err)
		}

		_, err = enver.AddProducer(contract.Group(webUIRoot, contract.Leaf("siteUrl")))
		return errors.Trace(err)
	})
}
