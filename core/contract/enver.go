// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/names/v5"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/core/naming"
)

// EnverKey identifies an environment across the graph: "<build>/<enver>".
type EnverKey string

var validEnverName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// NewEnverKey returns the key of environment enver of build.
func NewEnverKey(build, enver string) EnverKey {
	return EnverKey(build + "/" + enver)
}

// Build returns the build part of the key.
func (k EnverKey) Build() string {
	build, _, _ := strings.Cut(string(k), "/")
	return build
}

// Enver returns the environment part of the key.
func (k EnverKey) Enver() string {
	_, enver, _ := strings.Cut(string(k), "/")
	return enver
}

// Validate checks the key is of the form "<build>/<enver>".
func (k EnverKey) Validate() error {
	build, enver, ok := strings.Cut(string(k), "/")
	if !ok || !names.IsValidApplication(build) || !validEnverName.MatchString(enver) {
		return errors.NotValidf("environment key %q", string(k))
	}
	return nil
}

// RevisionKind says whether a revision is a moving branch or a fixed tag.
type RevisionKind string

const (
	BranchRevisionKind RevisionKind = "branch"
	TagRevisionKind    RevisionKind = "tag"
)

// Revision is the source revision an environment is pinned to.
type Revision struct {
	Kind RevisionKind `yaml:"kind" json:"kind"`
	Ref  string       `yaml:"ref" json:"ref"`
}

// BranchRevision pins an environment to a branch.
func BranchRevision(branch string) Revision {
	return Revision{Kind: BranchRevisionKind, Ref: branch}
}

// TagRevision pins an environment to a tag.
func TagRevision(tag string) Revision {
	return Revision{Kind: TagRevisionKind, Ref: tag}
}

// String implements fmt.Stringer.
func (r Revision) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Ref)
}

// Validate checks the revision is complete.
func (r Revision) Validate() error {
	switch r.Kind {
	case BranchRevisionKind, TagRevisionKind:
	default:
		return errors.Annotatef(coreerrors.MissingConfiguration, "revision kind %q", r.Kind)
	}
	if r.Ref == "" {
		return errors.Annotatef(coreerrors.MissingConfiguration, "%s revision without ref", r.Kind)
	}
	return nil
}

// Mutability is the deployment policy of an environment. It has no bearing
// on the graph structure.
type Mutability string

const (
	Mutable   Mutability = "mutable"
	Immutable Mutability = "immutable"
)

// State is the lifecycle state of an environment.
type State int

const (
	// Unconstructed environments accept eager producers.
	Unconstructed State = iota

	// ProducersInitialized environments have all their eager producers;
	// wiring may begin.
	ProducersInitialized

	// Wired environments have all their consumers.
	Wired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Unconstructed:
		return "unconstructed"
	case ProducersInitialized:
		return "producers-initialized"
	case Wired:
		return "wired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EnverArgs holds the coordinates of a new environment.
type EnverArgs struct {
	Build      string
	Name       string
	AccountID  string
	Region     string
	Revision   Revision
	Mutability Mutability
}

// Enver is one deployable instance of a service build, pinned to an
// account, a region and a source revision.
type Enver struct {
	key        EnverKey
	accountID  string
	region     string
	revision   Revision
	mutability Mutability
	namespace  naming.Namespace

	state      State
	wiring     bool
	producers  []*Producer
	roots      set.Strings
	consumers  []*Consumer
	identities []naming.Identity
}

// NewEnver returns an unconstructed environment with immutable coordinates.
func NewEnver(args EnverArgs) (*Enver, error) {
	key := NewEnverKey(args.Build, args.Name)
	if err := key.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if args.AccountID == "" {
		return nil, errors.Annotatef(coreerrors.MissingConfiguration, "account of environment %q", key)
	}
	if args.Region == "" {
		return nil, errors.Annotatef(coreerrors.MissingConfiguration, "region of environment %q", key)
	}
	if err := args.Revision.Validate(); err != nil {
		return nil, errors.Annotatef(err, "environment %q", key)
	}
	ns, err := naming.NewNamespace(args.Build)
	if err != nil {
		return nil, errors.Trace(err)
	}
	mutability := args.Mutability
	if mutability == "" {
		mutability = Mutable
	}
	return &Enver{
		key:        key,
		accountID:  args.AccountID,
		region:     args.Region,
		revision:   args.Revision,
		mutability: mutability,
		namespace:  ns,
		roots:      set.NewStrings(),
	}, nil
}

// Key returns the environment key.
func (e *Enver) Key() EnverKey {
	return e.key
}

// Build returns the name of the owning build.
func (e *Enver) Build() string {
	return e.key.Build()
}

// Name returns the environment name, e.g. "dev".
func (e *Enver) Name() string {
	return e.key.Enver()
}

// AccountID returns the account the environment deploys to.
func (e *Enver) AccountID() string {
	return e.accountID
}

// Region returns the region the environment deploys to.
func (e *Enver) Region() string {
	return e.region
}

// Revision returns the source revision the environment is pinned to.
func (e *Enver) Revision() Revision {
	return e.revision
}

// Mutability returns the deployment policy of the environment.
func (e *Enver) Mutability() Mutability {
	return e.mutability
}

// Namespace returns the identity namespace of the owning service.
func (e *Enver) Namespace() naming.Namespace {
	return e.namespace
}

// State returns the lifecycle state.
func (e *Enver) State() State {
	return e.state
}

// String implements fmt.Stringer.
func (e *Enver) String() string {
	return string(e.key)
}

// AddProducer builds a producer tree from root and attaches it to the
// environment. Producers added before SealProducers are eager; producers
// added while the environment is being wired are late.
func (e *Enver) AddProducer(root NodeSpec) (*Producer, error) {
	switch {
	case e.state == Wired:
		return nil, errors.Annotatef(coreerrors.AlreadyWired, "adding producer %q to %q", root.Segment, e.key)
	case e.state == ProducersInitialized && !e.wiring:
		return nil, errors.NotValidf("adding producer %q to %q after producers were initialized", root.Segment, e.key)
	}
	if e.roots.Contains(root.Segment) {
		return nil, errors.Annotatef(coreerrors.DuplicateRegistration, "producer %q on %q", root.Segment, e.key)
	}
	p := &Producer{owner: e, late: e.wiring}
	node, err := buildNode(p, nil, root)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p.root = node
	e.roots.Add(root.Segment)
	e.producers = append(e.producers, p)
	return p, nil
}

// Producers returns the producers in the order they were added.
func (e *Enver) Producers() []*Producer {
	return append([]*Producer(nil), e.producers...)
}

// Producer returns the producer with the given root segment.
func (e *Enver) Producer(root string) (*Producer, error) {
	for _, p := range e.producers {
		if p.root.segment == root {
			return p, nil
		}
	}
	return nil, errors.Annotatef(coreerrors.UnresolvedReference, "producer %q on %q", root, e.key)
}

// Lookup returns the node at path, "<root>/<child>/...".
func (e *Enver) Lookup(path string) (*Node, error) {
	root, rest, _ := strings.Cut(path, pathSeparator)
	p, err := e.Producer(root)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if rest == "" {
		return p.root, nil
	}
	return p.Lookup(rest)
}

// DeclareIdentity declares a runtime identity named component within the
// environment's namespace, account and region.
func (e *Enver) DeclareIdentity(component string) (naming.Identity, error) {
	id, err := e.namespace.Identity(component, e.accountID, e.region)
	if err != nil {
		return naming.Identity{}, errors.Annotatef(err, "environment %q", e.key)
	}
	return e.addIdentity(id)
}

// AddIdentity declares an identity created by the environment. It is
// rejected with NamingConventionViolation unless it lives in the
// environment's namespace, account and region.
func (e *Enver) AddIdentity(id naming.Identity) (naming.Identity, error) {
	if err := e.namespace.Validate(id); err != nil {
		return naming.Identity{}, errors.Annotatef(err, "environment %q", e.key)
	}
	if id.AccountID != e.accountID || id.Region != e.region {
		return naming.Identity{}, errors.Annotatef(coreerrors.NamingConventionViolation,
			"environment %q: identity %q not scoped to %s/%s", e.key, id, e.accountID, e.region)
	}
	return e.addIdentity(id)
}

func (e *Enver) addIdentity(id naming.Identity) (naming.Identity, error) {
	for _, existing := range e.identities {
		if existing == id {
			return naming.Identity{}, errors.Annotatef(coreerrors.DuplicateRegistration, "identity %q on %q", id, e.key)
		}
	}
	e.identities = append(e.identities, id)
	return id, nil
}

// Identities returns the identities declared by the environment.
func (e *Enver) Identities() []naming.Identity {
	return append([]naming.Identity(nil), e.identities...)
}

// SealProducers moves the environment from Unconstructed to
// ProducersInitialized. It is called once construction of the owning build
// is complete.
func (e *Enver) SealProducers() error {
	if e.state != Unconstructed {
		return errors.NotValidf("sealing producers of %q in state %s", e.key, e.state)
	}
	e.state = ProducersInitialized
	return nil
}

// BeginWiring marks the environment as being wired: consumers may be
// attached and producers added from now on are late. It is called by the
// registry, never by the environment's build.
func (e *Enver) BeginWiring() error {
	switch {
	case e.state == Wired:
		return errors.Annotatef(coreerrors.AlreadyWired, "environment %q", e.key)
	case e.state != ProducersInitialized:
		return errors.NotValidf("wiring %q in state %s", e.key, e.state)
	case e.wiring:
		return errors.NotValidf("wiring %q twice", e.key)
	}
	e.wiring = true
	return nil
}

// IsWiring reports whether the environment is currently being wired.
func (e *Enver) IsWiring() bool {
	return e.wiring
}

// MarkWired completes wiring of the environment.
func (e *Enver) MarkWired() error {
	switch {
	case e.state == Wired:
		return errors.Annotatef(coreerrors.AlreadyWired, "environment %q", e.key)
	case !e.wiring:
		return errors.NotValidf("completing wiring of %q before it began", e.key)
	}
	e.wiring = false
	e.state = Wired
	return nil
}

// AttachConsumer creates a consumer edge from the environment to target.
// Consumers can only be attached while the environment is being wired and
// must reference another environment's producer.
func (e *Enver) AttachConsumer(target *Node, args ConsumerArgs) (*Consumer, error) {
	if target == nil {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "nil consumer target for %q", e.key)
	}
	if e.state == Wired {
		return nil, errors.Annotatef(coreerrors.AlreadyWired, "consuming %q from %q", target.Address(), e.key)
	}
	if !e.wiring {
		return nil, errors.NotValidf("consuming %q from %q outside of wiring", target.Address(), e.key)
	}
	if target.Owner() == e {
		return nil, errors.NotValidf("self reference from %q to its own producer %q", e.key, target.Address())
	}
	propagation := args.Propagation
	if propagation == "" {
		propagation = PropagateDirect
	}
	if err := propagation.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Consumer{
		owner:       e,
		target:      target,
		propagation: propagation,
	}
	if args.Fallback != nil {
		fallback := *args.Fallback
		c.fallback = &fallback
	}
	e.consumers = append(e.consumers, c)
	return c, nil
}

// Consumers returns the environment's consumers. Reading them before the
// environment is wired is an error rather than an empty result.
func (e *Enver) Consumers() ([]*Consumer, error) {
	if e.state != Wired {
		return nil, errors.Annotatef(coreerrors.NotWired, "consumers of %q in state %s", e.key, e.state)
	}
	return append([]*Consumer(nil), e.consumers...), nil
}
