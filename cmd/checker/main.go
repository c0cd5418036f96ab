// Command checker verifies a deployed stack: the declared outputs are
// present, the function and role are live, and the endpoint answers.
package main

import (
	"flag"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/lambda"

	"github.com/nimbleops/greeter/internal/checker"
	xlog "github.com/nimbleops/greeter/internal/log"
	"github.com/nimbleops/greeter/internal/stack"
)

func main() {

	stackName := flag.String("stack", "greeter", "deployed stack name")
	templatePath := flag.String("template", "template.yaml", "path to the deployment template")
	flag.Parse()

	xlog.Configure(xlog.Config{Service: "checker"})
	logger := xlog.WithComponent("checker")

	tpl, err := stack.Load(*templatePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load template")
	}
	if err := tpl.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("template is not valid")
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	cfg := &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))}

	c := checker.NewChecker(
		cloudformation.New(sess, cfg),
		lambda.New(sess, cfg),
		iam.New(sess, cfg),
	)

	if err := c.Run(*stackName, tpl); err != nil {
		logger.Fatal().Err(err).Str("stack", *stackName).Msg("stack check failed")
	}

	logger.Info().Str("stack", *stackName).Msg("stack check passed")
}
