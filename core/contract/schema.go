// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import (
	"fmt"
	"regexp"

	"github.com/juju/errors"
)

const schemaScheme = "store://"

// schemaURIRegexp matches store://<bucket>/<prefix...>/<artifact>-<revision>.json.
var schemaURIRegexp = regexp.MustCompile(
	`^store://(?P<bucket>[a-z0-9][a-z0-9.-]*)/(?:(?P<prefix>[^\s]+)/)?(?P<artifact>[a-zA-Z][a-zA-Z0-9_-]*?)-(?P<revision>[0-9a-f]{7,40})\.json$`,
)

// SchemaURI locates a revision stamped schema document. Schema artifact
// nodes resolve to one; its content is fetched and interpreted by the
// consumer.
type SchemaURI struct {
	Bucket   string
	Prefix   string
	Artifact string
	Revision string
}

// ParseSchemaURI parses "store://<bucket>/<prefix>/<artifact>-<revision>.json".
// The prefix is optional; the revision is a hex commit hash of 7 to 40
// characters.
func ParseSchemaURI(s string) (SchemaURI, error) {
	if !schemaURIRegexp.MatchString(s) {
		return SchemaURI{}, errors.NotValidf("schema URI %q, must be %s<bucket>/<prefix>/<artifact>-<revision>.json", s, schemaScheme)
	}
	return SchemaURI{
		Bucket:   schemaURIRegexp.ReplaceAllString(s, "$bucket"),
		Prefix:   schemaURIRegexp.ReplaceAllString(s, "$prefix"),
		Artifact: schemaURIRegexp.ReplaceAllString(s, "$artifact"),
		Revision: schemaURIRegexp.ReplaceAllString(s, "$revision"),
	}, nil
}

// Key returns the object key of the document within its bucket.
func (u SchemaURI) Key() string {
	name := fmt.Sprintf("%s-%s.json", u.Artifact, u.Revision)
	if u.Prefix == "" {
		return name
	}
	return u.Prefix + "/" + name
}

// String implements fmt.Stringer.
func (u SchemaURI) String() string {
	return schemaScheme + u.Bucket + "/" + u.Key()
}
