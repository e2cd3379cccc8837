package shellx_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/cabinetapp/autobuild/internal/shellx"
	"github.com/cabinetapp/autobuild/internal/shellx/shellxtesting"
	"github.com/google/go-cmp/cmp"
)

func TestParseCommandLineWithEscapedSpace(t *testing.T) {
	rec := &shellxtesting.Recorder{}
	shellxtesting.WithCustomLibrary(rec, func() {
		argv, err := shellx.ParseCommandLine(`/Applications/Application\ Loader.app/altool --verbose`, "--upload-app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := &shellx.Argv{
			P: "/Applications/Application Loader.app/altool",
			V: []string{"--verbose", "--upload-app"},
		}
		if diff := cmp.Diff(want, argv); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestParseCommandLineResolvesProgram(t *testing.T) {
	rec := &shellxtesting.Recorder{}
	shellxtesting.WithCustomLibrary(rec, func() {
		argv, err := shellx.ParseCommandLine("xcrun altool")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"/fake/bin/xcrun", "altool"}, argv.Slice()); diff != "" {
			t.Fatal(diff)
		}
		if argv.Name() != "xcrun" {
			t.Fatalf("Name() = %q, want xcrun", argv.Name())
		}
	})
}

func TestParseCommandLineErrors(t *testing.T) {
	if _, err := shellx.ParseCommandLine("   "); !errors.Is(err, shellx.ErrNoCommandToExecute) {
		t.Fatalf("expected ErrNoCommandToExecute, got %v", err)
	}
	if _, err := shellx.ParseCommandLine(`"unterminated`); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseCommandLineLookPathFailure(t *testing.T) {
	lib := &shellxtesting.Library{
		MockLookPath: func(file string) (string, error) {
			return "", errors.New("executable file not found")
		},
	}
	shellxtesting.WithCustomLibrary(lib, func() {
		if _, err := shellx.ParseCommandLine("xcrun altool"); err == nil {
			t.Fatal("expected lookup error")
		}
	})
}

func TestRunCapturesOutputAndLogsRedacted(t *testing.T) {
	handler := memory.New()
	logger := &log.Logger{Handler: handler, Level: log.DebugLevel}
	rec := &shellxtesting.Recorder{Output: map[int]string{0: "line one\nline two\n"}}
	var stream bytes.Buffer

	shellxtesting.WithCustomLibrary(rec, func() {
		argv, err := shellx.NewArgv("altool", "-u", "me", "-p", "hunter2")
		if err != nil {
			t.Fatal(err)
		}
		config := &shellx.Config{Logger: logger, Stream: &stream, Redact: []string{"hunter2"}}
		res, err := shellx.Run(context.Background(), config, argv)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(res.Output) != "line one\nline two\n" {
			t.Fatalf("unexpected output %q", res.Output)
		}
	})

	if stream.String() != "line one\nline two\n" {
		t.Fatalf("expected output to be streamed, got %q", stream.String())
	}
	if len(handler.Entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(handler.Entries))
	}
	msg := handler.Entries[0].Message
	if strings.Contains(msg, "hunter2") {
		t.Fatalf("password leaked into log: %s", msg)
	}
	if !strings.Contains(msg, "-p ********") {
		t.Fatalf("expected redacted password in log, got: %s", msg)
	}
}

func TestRunFailureReturnsExitError(t *testing.T) {
	rec := &shellxtesting.Recorder{
		Output: map[int]string{0: "a\nb\nc\n** ARCHIVE FAILED **\n"},
		Errors: map[int]error{0: errors.New("boom")},
	}
	shellxtesting.WithCustomLibrary(rec, func() {
		argv, err := shellx.NewArgv("xcodebuild", "archive")
		if err != nil {
			t.Fatal(err)
		}
		_, err = shellx.Run(context.Background(), &shellx.Config{}, argv)
		var exitErr *shellx.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("expected *ExitError, got %T: %v", err, err)
		}
		if exitErr.Code != -1 {
			t.Errorf("expected code -1, got %d", exitErr.Code)
		}
		if got := exitErr.Tail(2); got != "c\n** ARCHIVE FAILED **" {
			t.Errorf("Tail(2) = %q", got)
		}
		if !strings.HasPrefix(exitErr.Error(), "xcodebuild: boom") {
			t.Errorf("unexpected message %q", exitErr.Error())
		}
	})
}

func TestTail(t *testing.T) {
	if got := shellx.Tail([]byte("one\ntwo\n"), 5); got != "one\ntwo" {
		t.Fatalf("Tail() = %q", got)
	}
}
