// Package stack loads the deployment template and answers questions about
// the resources it declares. Provisioning and intrinsic resolution belong
// to the deployment tool; this package only checks that the document it is
// handed hangs together.
package stack

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is the deployment document.
type Template struct {
	Version     string                 `yaml:"AWSTemplateFormatVersion"`
	Transform   string                 `yaml:"Transform"`
	Description string                 `yaml:"Description"`
	Globals     map[string]interface{} `yaml:"Globals"`
	Resources   map[string]Resource    `yaml:"Resources"`
	Outputs     map[string]Output      `yaml:"Outputs"`
}

// Resource is a declared resource.
type Resource struct {
	Type       string                 `yaml:"Type"`
	Properties map[string]interface{} `yaml:"Properties"`
	Metadata   map[string]interface{} `yaml:"Metadata"`
}

// Output is a declared stack output.
type Output struct {
	Description string      `yaml:"Description"`
	Value       interface{} `yaml:"Value"`
}

// required properties per resource type, for the types this template uses
var required = map[string][]string{
	"AWS::Serverless::Function": {"Handler", "Runtime", "CodeUri"},
	"AWS::Serverless::Api":      {"StageName"},
}

// Parse decodes a template document.
func Parse(b []byte) (*Template, error) {

	var t Template
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("could not parse template: %v", err)
	}

	return &t, nil
}

// Load reads and decodes the template at path.
func Load(path string) (*Template, error) {

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read template: %v", err)
	}

	return Parse(b)
}

// Validate checks that every declared resource carries its required
// properties and that every symbolic reference resolves to a declared
// resource or a pseudo parameter.
func (t *Template) Validate() error {

	if len(t.Resources) == 0 {
		return fmt.Errorf("template declares no resources")
	}

	for name, r := range t.Resources {
		if r.Type == "" {
			return fmt.Errorf("resource %v has no type", name)
		}
		for _, p := range required[r.Type] {
			if _, ok := r.Properties[p]; !ok {
				return fmt.Errorf("resource %v is missing required property %v", name, p)
			}
		}
	}

	for _, ref := range t.references() {
		if !t.resolves(ref) {
			return fmt.Errorf("reference %v does not resolve to a declared resource", ref)
		}
	}

	return nil
}

// references collects every Ref, Fn::GetAtt and Fn::Sub target in the
// resource properties and output values.
func (t *Template) references() []string {

	var refs []string
	for _, r := range t.Resources {
		refs = append(refs, walk(r.Properties)...)
	}
	for _, o := range t.Outputs {
		refs = append(refs, walk(o.Value)...)
	}

	return refs
}

var subToken = regexp.MustCompile(`\$\{([^}]+)\}`)

func walk(v interface{}) []string {

	var refs []string
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			switch k {
			case "Ref":
				if s, ok := item.(string); ok {
					refs = append(refs, s)
				}
			case "Fn::GetAtt":
				switch att := item.(type) {
				case string:
					refs = append(refs, strings.SplitN(att, ".", 2)[0])
				case []interface{}:
					if len(att) > 0 {
						if s, ok := att[0].(string); ok {
							refs = append(refs, s)
						}
					}
				}
			case "Fn::Sub":
				switch sub := item.(type) {
				case string:
					refs = append(refs, subTokens(sub)...)
				case []interface{}:
					// list form: template string plus a substitution map
					if len(sub) > 0 {
						if s, ok := sub[0].(string); ok {
							refs = append(refs, subTokens(s)...)
						}
					}
				}
			default:
				refs = append(refs, walk(item)...)
			}
		}
	case []interface{}:
		for _, item := range val {
			refs = append(refs, walk(item)...)
		}
	}

	return refs
}

func subTokens(s string) []string {

	var refs []string
	for _, m := range subToken.FindAllStringSubmatch(s, -1) {
		ref := m[1]
		if strings.HasPrefix(ref, "!") {
			// ${!literal} is an escape, not a reference
			continue
		}
		if i := strings.Index(ref, "."); i >= 0 {
			ref = ref[:i]
		}
		refs = append(refs, ref)
	}

	return refs
}

func (t *Template) resolves(ref string) bool {

	// pseudo parameters such as AWS::Region
	if strings.HasPrefix(ref, "AWS::") {
		return true
	}

	if _, ok := t.Resources[ref]; ok {
		return true
	}

	// the serverless transform injects an implicit REST API for Api events
	if ref == "ServerlessRestApi" {
		return true
	}

	// and an execution role per serverless function
	if base := strings.TrimSuffix(ref, "Role"); base != ref {
		if r, ok := t.Resources[base]; ok && r.Type == "AWS::Serverless::Function" {
			return true
		}
	}

	return false
}
