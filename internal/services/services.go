// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package services declares the builds of the document pipeline: what each
// of them produces and what it consumes from the others.
package services

import (
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	"github.com/ondemandenv/contracts/core/naming"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/registry"
)

// Build names.
const (
	DocumentIngestionName  = "document-ingestion"
	DocumentProcessingName = "document-processing"
	EmbeddingName          = "embedding"
	VectorStorageName      = "vector-storage"
	KnowledgeRetrievalName = "knowledge-retrieval"
	WebUIName              = "web-ui"
)

// Environment names. Every build has both; a dev environment only ever
// consumes dev environments, prod only prod.
const (
	Dev  = "dev"
	Prod = "prod"
)

// RepositoryOwner owns every build repository.
const RepositoryOwner = "ondemandenv"

// DevBranch is the branch dev environments track.
const DevBranch = "main"

// Factories returns the factory of every build, in registration order.
func Factories() []registry.Factory {
	return []registry.Factory{
		NewDocumentIngestion,
		NewDocumentProcessing,
		NewEmbedding,
		NewVectorStorage,
		NewKnowledgeRetrieval,
		NewWebUI,
	}
}

// Register constructs the registry of every build through guard.
func Register(guard *registry.Guard, cfg config.Config) (*registry.Registry, error) {
	r, err := guard.New(cfg, Factories()...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

// pipelineBuild is the common part of every build of the pipeline: a dev
// and a prod environment.
type pipelineBuild struct {
	registry.BuildBase
}

func newPipelineBuild(cfg config.Config, name, prodTag string, requires ...string) (pipelineBuild, error) {
	base, err := registry.NewBuildBase(name, registry.RepositoryIdentity{Owner: RepositoryOwner, Name: name}, requires...)
	if err != nil {
		return pipelineBuild{}, errors.Trace(err)
	}
	b := pipelineBuild{BuildBase: base}
	if _, err := b.AddEnver(contract.EnverArgs{
		Name:       Dev,
		AccountID:  cfg.DevAccount(),
		Region:     cfg.Region,
		Revision:   contract.BranchRevision(DevBranch),
		Mutability: contract.Mutable,
	}); err != nil {
		return pipelineBuild{}, errors.Trace(err)
	}
	if _, err := b.AddEnver(contract.EnverArgs{
		Name:       Prod,
		AccountID:  cfg.ProdAccount(),
		Region:     cfg.Region,
		Revision:   contract.TagRevision(prodTag),
		Mutability: contract.Immutable,
	}); err != nil {
		return pipelineBuild{}, errors.Trace(err)
	}
	return b, nil
}

// eachEnver calls fn for every environment of the build, stopping at the
// first error.
func (b *pipelineBuild) eachEnver(fn func(*contract.Enver) error) error {
	for _, enver := range b.Envers() {
		if err := fn(enver); err != nil {
			return errors.Annotatef(err, "environment %q", enver.Key())
		}
	}
	return nil
}

// declareIdentities declares the runtime identities of every environment.
func (b *pipelineBuild) declareIdentities(components ...string) error {
	return b.eachEnver(func(enver *contract.Enver) error {
		for _, component := range components {
			if _, err := enver.DeclareIdentity(component); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	})
}

// peer returns the key of build's environment paired with enver.
func peer(build string, enver *contract.Enver) contract.EnverKey {
	return contract.NewEnverKey(build, enver.Name())
}

// grant returns the trust pattern over service's namespace, scoped to the
// account and region of enver.
func grant(service string, enver *contract.Enver) naming.TrustPattern {
	return naming.TrustPattern{
		Service:   service,
		AccountID: enver.AccountID(),
		Region:    enver.Region(),
	}
}

// Status is the producer every build exposes with its health endpoint.
type Status struct {
	StatusAPI *contract.Node
}

func statusSpec(root string) contract.NodeSpec {
	return contract.Group(root, contract.Leaf("statusApi"))
}

func newStatus(p *contract.Producer) Status {
	return Status{StatusAPI: p.MustLookup("statusApi")}
}

// consumeAll attaches a consumer from owner to each target.
func consumeAll(ctx *registry.WiringContext, owner *contract.Enver, args contract.ConsumerArgs, targets ...*contract.Node) error {
	for _, target := range targets {
		if _, err := ctx.Consume(owner, target, args); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
