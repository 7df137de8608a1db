package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// The only messages a failed background task may show to users.
const (
	ClassPermission   = `Bot needs "View Server Members" permission`
	ClassConfig       = "Configuration error. Please contact an administrator."
	ClassUpstream     = "Discord is temporarily unavailable. Please try again later."
	ClassMemberAccess = "Unable to access server members. Please try again later."
	ClassSheetUpdate  = "Unable to update the spreadsheet. Please try again later."
	ClassGeneric      = "An unexpected error occurred. Please try again later."
)

type classRule struct {
	patterns []string
	message  string
}

// Checked in order; the first rule with a matching pattern wins.
var classRules = []classRule{
	{patterns: []string{"bot lacks permission", "lacks permission"}, message: ClassPermission},
	{patterns: []string{"authentication", "oauth"}, message: ClassConfig},
	{patterns: []string{"discord api error"}, message: ClassUpstream},
	{patterns: []string{"failed to fetch members"}, message: ClassMemberAccess},
	{patterns: []string{"failed to append members"}, message: ClassSheetUpdate},
}

// Classify maps an upstream failure onto one of the fixed user-facing
// messages. The raw error text is never returned.
func Classify(err error) string {
	if err == nil {
		return ClassGeneric
	}
	return classifyMessage(err.Error())
}

// ClassifyRecovered classifies a value recovered from a panic. Only error
// values are inspected.
func ClassifyRecovered(v any) string {
	if err, ok := v.(error); ok {
		return Classify(err)
	}
	return ClassGeneric
}

func classifyMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return ClassGeneric
	}
	// Caser is stateful; one per call keeps Classify safe for concurrent use.
	fold := cases.Fold()
	folded := fold.String(msg)
	for _, rule := range classRules {
		for _, p := range rule.patterns {
			if strings.Contains(folded, fold.String(p)) {
				return rule.message
			}
		}
	}
	return ClassGeneric
}
