// Package checker verifies a deployed stack against its template: the
// declared outputs are present, the function and role they name exist, and
// the endpoint answers with a well-formed greeting.
package checker

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/tidwall/gjson"

	"github.com/nimbleops/greeter/internal/client"
	"github.com/nimbleops/greeter/internal/stack"
)

// insightsPolicy is the managed policy the template attaches to the
// function's execution role.
const insightsPolicy = "CloudWatchLambdaInsightsExecutionRolePolicy"

// greetingFields are the keys the deployed function must return.
var greetingFields = []string{"message", "source ip", "architecture", "operating system"}

// StackDescriber is an abstraction (helpful for testing)
type StackDescriber interface {
	DescribeStacks(*cloudformation.DescribeStacksInput) (*cloudformation.DescribeStacksOutput, error)
}

// FunctionGetter is an abstraction
type FunctionGetter interface {
	GetFunction(*lambda.GetFunctionInput) (*lambda.GetFunctionOutput, error)
}

// RoleGetter is an abstraction
type RoleGetter interface {
	GetRole(*iam.GetRoleInput) (*iam.GetRoleOutput, error)
	ListAttachedRolePolicies(*iam.ListAttachedRolePoliciesInput) (*iam.ListAttachedRolePoliciesOutput, error)
}

// Checker verifies one deployed stack.
type Checker struct {
	cfn StackDescriber
	fn  FunctionGetter
	iam RoleGetter
}

// NewChecker returns a new checker
func NewChecker(cfn StackDescriber, fn FunctionGetter, im RoleGetter) *Checker {
	return &Checker{cfn: cfn, fn: fn, iam: im}
}

// Outputs fetches the deployed stack's outputs and requires every key the
// template declares to be among them.
func (c *Checker) Outputs(stackName string, tpl *stack.Template) (map[string]string, error) {

	out, err := c.cfn.DescribeStacks(&cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe stack: %v", err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("stack %v not found", stackName)
	}

	got := map[string]string{}
	for _, o := range out.Stacks[0].Outputs {
		got[aws.StringValue(o.OutputKey)] = aws.StringValue(o.OutputValue)
	}

	for key := range tpl.Outputs {
		if got[key] == "" {
			return nil, fmt.Errorf("stack is missing declared output %v", key)
		}
	}

	return got, nil
}

// CheckFunction confirms the function ARN resolves to a live function.
func (c *Checker) CheckFunction(arn string) error {

	out, err := c.fn.GetFunction(&lambda.GetFunctionInput{
		FunctionName: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("failed to get function: %v", err)
	}
	if out.Configuration == nil {
		return fmt.Errorf("function %v has no configuration", arn)
	}

	if got := aws.StringValue(out.Configuration.FunctionArn); got != arn {
		return fmt.Errorf("function ARN mismatch: expected %v, got %v", arn, got)
	}

	fmt.Printf("function %v is live\n", arn)
	return nil
}

// CheckRole confirms the execution role exists and carries the Lambda
// Insights policy.
func (c *Checker) CheckRole(arn string) error {

	name := arn[strings.LastIndex(arn, "/")+1:]
	if name == "" {
		return fmt.Errorf("could not get role name from %v", arn)
	}

	_, err := c.iam.GetRole(&iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		return fmt.Errorf("failed to get role: %v", err)
	}

	pols, err := c.iam.ListAttachedRolePolicies(&iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to list role policies: %v", err)
	}

	for _, p := range pols.AttachedPolicies {
		if strings.Contains(aws.StringValue(p.PolicyArn), insightsPolicy) {
			fmt.Printf("role %v carries the Insights policy\n", name)
			return nil
		}
	}

	return fmt.Errorf("role %v is missing the %v policy", name, insightsPolicy)
}

// CheckEndpoint probes the deployed endpoint and inspects the greeting.
func (c *Checker) CheckEndpoint(endpoint string) error {

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("could not parse endpoint URL: %v", err)
	}

	cl := &client.Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}

	req, err := cl.NewRequest("", "GET", nil)
	if err != nil {
		return fmt.Errorf("failed to make request: %v", err)
	}

	res, err := cl.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call endpoint: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint call failed with status code: %v", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %v", err)
	}

	for _, field := range greetingFields {
		if !gjson.GetBytes(body, field).Exists() {
			return fmt.Errorf("response is missing field %q", field)
		}
	}

	fmt.Printf("endpoint answered from %v\n", gjson.GetBytes(body, "source ip").String())
	return nil
}

// Run performs every check for the named stack.
func (c *Checker) Run(stackName string, tpl *stack.Template) error {

	outs, err := c.Outputs(stackName, tpl)
	if err != nil {
		return err
	}

	var endpoint, fnARN, roleARN string
	for _, v := range outs {
		switch {
		case strings.HasPrefix(v, "arn:") && strings.Contains(v, ":lambda:"):
			fnARN = v
		case strings.HasPrefix(v, "arn:") && strings.Contains(v, ":role/"):
			roleARN = v
		case strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://"):
			endpoint = v
		}
	}

	if fnARN == "" {
		return fmt.Errorf("no function ARN among the stack outputs")
	}
	if roleARN == "" {
		return fmt.Errorf("no role ARN among the stack outputs")
	}
	if endpoint == "" {
		return fmt.Errorf("no endpoint URL among the stack outputs")
	}

	if err := c.CheckFunction(fnARN); err != nil {
		return err
	}
	if err := c.CheckRole(roleARN); err != nil {
		return err
	}
	return c.CheckEndpoint(endpoint)
}
