// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package aws

const (
	// identityAssumePolicy states which principals can assume a service
	// identity's role: the compute the services run on.
	identityAssumePolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {
        "Service": [
          "lambda.amazonaws.com",
          "ecs-tasks.amazonaws.com"
        ]
      },
      "Action": "sts:AssumeRole"
    }
  ]
}
`

	policyVersion = "2012-10-17"
)

// bucketReadActions are granted to trusted identities on a bucket.
var bucketReadActions = []string{
	"s3:GetObject",
	"s3:ListBucket",
}
