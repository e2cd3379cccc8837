// Package dispatch turns command-line parameters into exactly one operation
// and runs it.
package dispatch

import (
	"fmt"
	"strings"
)

// Params are the raw invocation parameters. Empty strings and false mean
// "not given".
type Params struct {
	Project     string
	Workspace   string
	Output      string
	SkipUpload  bool
	AdHoc       bool
	AppStore    bool
	Upload      bool
	Altool      bool
	Description string
	Clean       bool
}

// String renders every parameter for the diagnostic line printed before
// dispatch.
func (p Params) String() string {
	fields := []string{
		kv("workspace", p.Workspace),
		kv("project", p.Project),
		kv("output", p.Output),
		fmt.Sprintf("ipa=%t", p.SkipUpload),
		fmt.Sprintf("adhoc=%t", p.AdHoc),
		fmt.Sprintf("appstore=%t", p.AppStore),
		fmt.Sprintf("upload=%t", p.Upload),
		fmt.Sprintf("altool=%t", p.Altool),
		kv("description", p.Description),
		fmt.Sprintf("clean=%t", p.Clean),
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func kv(key, value string) string {
	if value == "" {
		return key + "=<none>"
	}
	return fmt.Sprintf("%s=%q", key, value)
}
