package stack

import (
	"strings"
	"testing"
)

func TestRepoTemplate(t *testing.T) {

	tpl, err := Load("../../template.yaml")
	if err != nil {
		t.Fatalf("could not load template: %v", err)
	}

	if err := tpl.Validate(); err != nil {
		t.Errorf("template did not validate: %v", err)
	}

	if len(tpl.Outputs) != 3 {
		t.Errorf("expected 3 outputs, got %v", len(tpl.Outputs))
	}
	for _, key := range []string{"HelloWorldApi", "HelloWorldFunction", "HelloWorldFunctionIamRole"} {
		if _, ok := tpl.Outputs[key]; !ok {
			t.Errorf("template is missing output %v", key)
		}
	}
}

func TestValidate(t *testing.T) {

	tt := []struct {
		name     string
		template string
		err      string
	}{
		{
			name: "happy",
			template: `
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: .
      Handler: bootstrap
      Runtime: provided.al2023
Outputs:
  FnArn:
    Value:
      Fn::GetAtt: Fn.Arn
  FnRole:
    Value:
      Fn::GetAtt: FnRole.Arn
  Api:
    Value:
      Fn::Sub: https://${ServerlessRestApi}.execute-api.${AWS::Region}.amazonaws.com/Prod/
`,
		},
		{
			name:     "no resources",
			template: `Description: empty`,
			err:      "declares no resources",
		},
		{
			name: "untyped resource",
			template: `
Resources:
  Fn:
    Properties:
      Handler: bootstrap
`,
			err: "has no type",
		},
		{
			name: "missing required property",
			template: `
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      Handler: bootstrap
      Runtime: provided.al2023
`,
			err: "missing required property CodeUri",
		},
		{
			name: "dangling ref",
			template: `
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: .
      Handler: bootstrap
      Runtime: provided.al2023
Outputs:
  Other:
    Value:
      Ref: SomethingElse
`,
			err: "SomethingElse does not resolve",
		},
		{
			name: "dangling sub token",
			template: `
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: .
      Handler: bootstrap
      Runtime: provided.al2023
      Environment:
        Variables:
          PEER:
            Fn::Sub: ${MissingPeer}
`,
			err: "MissingPeer does not resolve",
		},
		{
			name: "role suffix only resolves for functions",
			template: `
Resources:
  Tbl:
    Type: AWS::Serverless::SimpleTable
Outputs:
  Role:
    Value:
      Fn::GetAtt: TblRole.Arn
`,
			err: "TblRole does not resolve",
		},
		{
			name: "escaped sub literal",
			template: `
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: .
      Handler: bootstrap
      Runtime: provided.al2023
      Environment:
        Variables:
          RAW:
            Fn::Sub: ${!NotARef}
`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			tpl, err := Parse([]byte(tc.template))
			if err != nil {
				t.Fatalf("could not parse template: %v", err)
			}

			err = tpl.Validate()
			if tc.err == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got none", tc.err)
			}
			if msg := err.Error(); !strings.Contains(msg, tc.err) {
				t.Errorf("expected error %q, got: %q", tc.err, msg)
			}
		})
	}
}
