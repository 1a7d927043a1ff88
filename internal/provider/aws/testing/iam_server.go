// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package testing holds in-memory simulators of the AWS APIs used by the
// provider.
package testing

import (
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

// InlinePolicy is a policy put on a role.
type InlinePolicy struct {
	PolicyDocument *string
	PolicyName     *string
}

// IAMServer implements an IAM simulator for use in testing.
type IAMServer struct {
	mu sync.Mutex

	accountID              string
	roles                  map[string]*types.Role
	roleInlinePolicy       map[string]*InlinePolicy
	producePermissionError bool
}

// NewIAMServer returns an IAMServer creating roles in accountID.
func NewIAMServer(accountID string) *IAMServer {
	srv := &IAMServer{accountID: accountID}
	srv.Reset()
	return srv
}

// ProducePermissionError makes every call fail with AccessDenied.
func (i *IAMServer) ProducePermissionError(p bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.producePermissionError = p
}

// Reset forgets every role.
func (i *IAMServer) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.roles = make(map[string]*types.Role)
	i.roleInlinePolicy = make(map[string]*InlinePolicy)
}

// Role returns the role called name.
func (i *IAMServer) Role(name string) (types.Role, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	role, ok := i.roles[name]
	if !ok {
		return types.Role{}, false
	}
	return *role, true
}

// RolePolicy returns the inline policy of the role called name.
func (i *IAMServer) RolePolicy(name string) (InlinePolicy, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	policy, ok := i.roleInlinePolicy[name]
	if !ok {
		return InlinePolicy{}, false
	}
	return *policy, true
}

func apiError(code, message string) error {
	return &smithy.GenericAPIError{
		Code:    code,
		Message: message,
		Fault:   smithy.FaultClient,
	}
}
