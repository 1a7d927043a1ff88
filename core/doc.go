// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the concepts and pure logic of the contract graph: the
producer trees and consumer edges of each environment, the hierarchical
identity naming that trust is granted over, and the errors raised while
building them.

It is important to be aware of what should *not* go here:

  - anything that talks to a cloud API or a value store;
  - anything concerned with how the graph is ordered and wired across
    builds, which belongs to internal/registry;
  - anything specific to one service of the pipeline.

It's fine to import from any subpackage of core, and from the AWS SDK's arn
package, which is pure string handling. Subpackages of core must not import
from internal.
*/
package core
