package issue_test

import (
	"fmt"
	"testing"

	"github.com/globaltype/gts/issue"
)

func TestIssues_Error(t *testing.T) {
	iss := issue.Issues{
		{Path: "/name", Code: issue.CodeRequired},
		{Path: "/age", Code: issue.CodeTooSmall},
	}
	if got := iss.Error(); got != "required at /name; too_small at /age" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestIssues_ErrorTruncatesPastThree(t *testing.T) {
	iss := issue.Issues{
		{Path: "/a", Code: issue.CodeRequired},
		{Path: "/b", Code: issue.CodeRequired},
		{Path: "/c", Code: issue.CodeRequired},
		{Path: "/d", Code: issue.CodeRequired},
	}
	got := iss.Error()
	if got != "required at /a; required at /b; required at /c; ... (total 4)" {
		t.Fatalf("unexpected truncated summary: %q", got)
	}
}

func TestAppendIssues_InitializesNil(t *testing.T) {
	var dst issue.Issues
	dst = issue.AppendIssues(dst, issue.Issue{Path: "/x", Code: issue.CodeUnknownKey})
	if len(dst) != 1 {
		t.Fatalf("expected one issue, got %d", len(dst))
	}
}

func TestAsIssues_RoundTripsThroughError(t *testing.T) {
	iss := issue.Issues{{Path: "/x", Code: issue.CodeInvalidType}}
	var err error = iss

	wrapped := fmt.Errorf("validation failed: %w", err)
	got, ok := issue.AsIssues(wrapped)
	if !ok {
		t.Fatalf("expected AsIssues to unwrap the Issues")
	}
	if len(got) != 1 || got[0].Code != issue.CodeInvalidType {
		t.Fatalf("unexpected issues: %+v", got)
	}
}

func TestAsIssues_NoMatch(t *testing.T) {
	if _, ok := issue.AsIssues(fmt.Errorf("plain error")); ok {
		t.Fatalf("expected no Issues to be found")
	}
}
