package service_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonny/sheetbot/internal/domain/service"
)

var allClasses = []string{
	service.ClassPermission,
	service.ClassConfig,
	service.ClassUpstream,
	service.ClassMemberAccess,
	service.ClassSheetUpdate,
	service.ClassGeneric,
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, service.ClassGeneric},
		{"empty", errors.New(""), service.ClassGeneric},
		{"whitespace", errors.New("   \n\t"), service.ClassGeneric},
		{"bot lacks permission", errors.New("Bot lacks permission to access server members"), service.ClassPermission},
		{"lacks permission", errors.New("user LACKS PERMISSION"), service.ClassPermission},
		{"authentication", errors.New("Authentication failed"), service.ClassConfig},
		{"oauth", errors.New("oauth2: cannot fetch token: 400"), service.ClassConfig},
		{"discord api", errors.New("Discord API error: 502"), service.ClassUpstream},
		{"fetch members", fmt.Errorf("failed to fetch members: %w", errors.New("timeout")), service.ClassMemberAccess},
		{"append members", fmt.Errorf("failed to append members: %w", errors.New("quota")), service.ClassSheetUpdate},
		{"unknown", errors.New("TypeError: cannot read property 'x' of undefined"), service.ClassGeneric},
		// permission outranks the member fetch wrapper
		{"priority", errors.New("failed to fetch members: bot lacks permission"), service.ClassPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Classify(tt.err))
		})
	}
}

func TestClassify_ExactPermissionMessage(t *testing.T) {
	got := service.Classify(errors.New("Bot lacks permission to access server members"))
	assert.Equal(t, `Bot needs "View Server Members" permission`, got)
}

func TestClassifyRecovered(t *testing.T) {
	assert.Equal(t, service.ClassGeneric, service.ClassifyRecovered(nil))
	assert.Equal(t, service.ClassGeneric, service.ClassifyRecovered("failed to append members"))
	assert.Equal(t, service.ClassGeneric, service.ClassifyRecovered(42))
	assert.Equal(t, service.ClassSheetUpdate, service.ClassifyRecovered(errors.New("failed to append members")))
}

func TestClassify_ClosedRangeNoLeaks(t *testing.T) {
	lineNumber := regexp.MustCompile(`:\d+`)
	inputs := []any{
		nil,
		"plain string",
		errors.New(""),
		errors.New("TypeError: x is not a function\n    at sync (worker.js:120:15)"),
		errors.New("HTTP 403 Forbidden: bot lacks permission (stack: main.go:88)"),
		errors.New("oauth: HTTP 401 at token.go:42"),
		fmt.Errorf("failed to fetch members: %w", errors.New("HTTP 500 stack trace follows")),
		struct{ Stack string }{Stack: "goroutine 1 [running]"},
	}
	for _, in := range inputs {
		got := service.ClassifyRecovered(in)
		assert.Contains(t, allClasses, got)
		assert.NotContains(t, got, "TypeError")
		assert.NotContains(t, got, "stack")
		assert.NotContains(t, got, "HTTP")
		assert.False(t, lineNumber.MatchString(got), "line number leaked in %q", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	err := errors.New("Discord API error")
	assert.Equal(t, service.Classify(err), service.Classify(err))
}
