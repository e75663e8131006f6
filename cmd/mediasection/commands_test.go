package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
)

func TestCredentialsHint(t *testing.T) {
	denied := &rest.StatusError{Method: "GET", Path: "/rest/EntityMedias/7", StatusCode: 403}
	if got := credentialsHint(denied); !strings.Contains(got.Error(), "check token") {
		t.Fatalf("expected hint for 403, got %q", got)
	}

	action := errors.Join(&section.ActionError{Action: section.ActionLaunchAlgorithm, StatusCode: 401})
	if got := credentialsHint(action); !strings.Contains(got.Error(), "check token") {
		t.Fatalf("expected hint for joined 401, got %q", got)
	}

	other := fmt.Errorf("boom")
	if got := credentialsHint(other); got != other {
		t.Fatalf("unexpected rewrite: %v", got)
	}
	if credentialsHint(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &consoleNotifier{out: &buf}
	n.Notify("Algorithm launched!", true)
	n.Error("Error creating zip file!")

	want := "Algorithm launched!\nerror: Error creating zip file!\n"
	if buf.String() != want {
		t.Fatalf("output mismatch:\n%s", buf.String())
	}
}
