// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func (i *IAMServer) CreateRole(
	ctx context.Context,
	input *iam.CreateRoleInput,
	opts ...func(*iam.Options),
) (*iam.CreateRoleOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.producePermissionError {
		return nil, apiError("AccessDenied", "not authorized to create roles")
	}
	if role, exists := i.roles[*input.RoleName]; exists {
		return &iam.CreateRoleOutput{
				Role: role,
			}, &types.EntityAlreadyExistsException{
				Message: aws.String(fmt.Sprintf("role %s", *input.RoleName)),
			}
	}

	rolePath := aws.ToString(input.Path)
	if rolePath == "" {
		rolePath = "/"
	}
	createDate := time.Now()
	i.roles[*input.RoleName] = &types.Role{
		Arn:                      aws.String(fmt.Sprintf("arn:aws:iam::%s:role%s%s", i.accountID, rolePath, *input.RoleName)),
		CreateDate:               &createDate,
		RoleName:                 input.RoleName,
		AssumeRolePolicyDocument: input.AssumeRolePolicyDocument,
		Description:              input.Description,
		MaxSessionDuration:       input.MaxSessionDuration,
		Path:                     aws.String(rolePath),
		Tags:                     input.Tags,
	}

	return &iam.CreateRoleOutput{
		Role: i.roles[*input.RoleName],
	}, nil
}

func (i *IAMServer) GetRole(
	ctx context.Context,
	input *iam.GetRoleInput,
	opts ...func(*iam.Options),
) (*iam.GetRoleOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.producePermissionError {
		return nil, apiError("AccessDenied", "not authorized to get roles")
	}
	role, exists := i.roles[*input.RoleName]
	if !exists {
		return nil, &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{
					Response: &http.Response{
						StatusCode: http.StatusNotFound,
					},
				},
			},
		}
	}
	return &iam.GetRoleOutput{
		Role: role,
	}, nil
}

func (i *IAMServer) PutRolePolicy(
	ctx context.Context,
	input *iam.PutRolePolicyInput,
	opts ...func(*iam.Options),
) (*iam.PutRolePolicyOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.producePermissionError {
		return nil, apiError("AccessDenied", "not authorized to put role policies")
	}
	role, exists := i.roles[*input.RoleName]
	if !exists {
		return nil, apiError("NoSuchEntity", "role not found")
	}

	i.roleInlinePolicy[*role.RoleName] = &InlinePolicy{
		PolicyDocument: input.PolicyDocument,
		PolicyName:     input.PolicyName,
	}
	return &iam.PutRolePolicyOutput{}, nil
}
