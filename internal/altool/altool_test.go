package altool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/shellx"
	"github.com/cabinetapp/autobuild/internal/shellx/shellxtesting"
	"github.com/google/go-cmp/cmp"
)

const successXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>os-version</key>
	<string>14.5.0</string>
	<key>success-message</key>
	<string>No errors validating archive at 'cabinet.ipa'.</string>
	<key>tool-version</key>
	<string>5.0.1</string>
</dict>
</plist>
`

const failureXML = `2024-05-01 12:00:00.000 altool[123:456] *** Error: Validation failed
<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>product-errors</key>
	<array>
		<dict>
			<key>code</key>
			<integer>-19208</integer>
			<key>message</key>
			<string>Invalid Provisioning Profile.</string>
		</dict>
		<dict>
			<key>code</key>
			<integer>-19000</integer>
			<key>message</key>
			<string>Missing icon.</string>
		</dict>
	</array>
</dict>
</plist>
`

func newTestClient() *Client {
	return &Client{
		Config: config.AppStoreConnect{
			Altool:   "xcrun altool",
			Username: "app@example.com",
			Password: "s3cret",
		},
		Logger: &log.Logger{Handler: discard.Default},
	}
}

func writePackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cabinet.ipa")
	if err := os.WriteFile(path, []byte("ipa"), 0o644); err != nil {
		t.Fatalf("write package: %v", err)
	}
	return path
}

func TestParseOutputSuccess(t *testing.T) {
	res, err := ParseOutput([]byte(successXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SuccessMessage != "No errors validating archive at 'cabinet.ipa'." {
		t.Errorf("unexpected success message %q", res.SuccessMessage)
	}
	if res.ToolVersion != "5.0.1" {
		t.Errorf("unexpected tool version %q", res.ToolVersion)
	}
}

func TestParseOutputSkipsLeadingLogLines(t *testing.T) {
	res, err := ParseOutput([]byte(failureXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ProductIssue{
		{Code: -19208, Message: "Invalid Provisioning Profile."},
		{Code: -19000, Message: "Missing icon."},
	}
	if diff := cmp.Diff(want, res.ProductErrors); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseOutputWithoutPlist(t *testing.T) {
	res, err := ParseOutput([]byte("plain text\n"))
	if err != nil || res != nil {
		t.Fatalf("expected nil result and error, got %v, %v", res, err)
	}
}

func TestUploadValidatesThenUploads(t *testing.T) {
	ipa := writePackage(t)
	rec := &shellxtesting.Recorder{Output: map[int]string{0: successXML, 1: successXML}}

	var res *Result
	var err error
	shellxtesting.WithCustomLibrary(rec, func() {
		res, err = newTestClient().Upload(context.Background(), ipa)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.SuccessMessage == "" {
		t.Fatalf("expected a success result, got %+v", res)
	}

	want := [][]string{
		{"xcrun", "altool", "--validate-app", "-f", ipa, "-u", "app@example.com", "-p", "s3cret", "--output-format", "xml"},
		{"xcrun", "altool", "--upload-app", "-f", ipa, "-u", "app@example.com", "-p", "s3cret", "--output-format", "xml"},
	}
	if diff := cmp.Diff(want, rec.Argvs); diff != "" {
		t.Fatal(diff)
	}
}

func TestUploadSucceedsWithoutPlist(t *testing.T) {
	ipa := writePackage(t)
	rec := &shellxtesting.Recorder{}

	var res *Result
	var err error
	shellxtesting.WithCustomLibrary(rec, func() {
		res, err = newTestClient().Upload(context.Background(), ipa)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a non-nil result for a zero exit status")
	}
	if len(rec.Argvs) != 2 {
		t.Fatalf("expected validate and upload, got %v", rec.Argvs)
	}
}

func TestUploadStopsWhenValidationReportsErrors(t *testing.T) {
	ipa := writePackage(t)
	rec := &shellxtesting.Recorder{
		Output: map[int]string{0: failureXML},
		Errors: map[int]error{0: errors.New("exit status 1")},
	}

	var err error
	shellxtesting.WithCustomLibrary(rec, func() {
		_, err = newTestClient().Upload(context.Background(), ipa)
	})
	var productErr *ProductError
	if !errors.As(err, &productErr) {
		t.Fatalf("expected *ProductError, got %T: %v", err, err)
	}
	if productErr.Action != "validate-app" {
		t.Errorf("expected validate-app action, got %q", productErr.Action)
	}
	if !strings.Contains(err.Error(), "Invalid Provisioning Profile.; Missing icon.") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if len(rec.Argvs) != 1 {
		t.Fatalf("expected upload to be skipped, got %d commands", len(rec.Argvs))
	}
}

func TestUploadExitErrorWithoutPlist(t *testing.T) {
	ipa := writePackage(t)
	rec := &shellxtesting.Recorder{
		Output: map[int]string{1: "network down\n"},
		Errors: map[int]error{1: errors.New("exit status 1")},
	}

	var err error
	shellxtesting.WithCustomLibrary(rec, func() {
		_, err = newTestClient().Upload(context.Background(), ipa)
	})
	var exitErr *shellx.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *shellx.ExitError, got %T: %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "altool upload-app:") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUploadMissingPackage(t *testing.T) {
	rec := &shellxtesting.Recorder{}
	var err error
	shellxtesting.WithCustomLibrary(rec, func() {
		_, err = newTestClient().Upload(context.Background(), filepath.Join(t.TempDir(), "nope.ipa"))
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if len(rec.Argvs) != 0 {
		t.Fatal("expected altool not to run")
	}
}

func TestUploadLegacyAltoolPath(t *testing.T) {
	ipa := writePackage(t)
	rec := &shellxtesting.Recorder{}
	client := newTestClient()
	client.Config.Altool = `/Applications/Xcode.app/Contents/Applications/Application\ Loader.app/Contents/Frameworks/ITunesSoftwareService.framework/Versions/A/Support/altool`

	shellxtesting.WithCustomLibrary(rec, func() {
		if _, err := client.Upload(context.Background(), ipa); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if len(rec.Argvs) != 2 || rec.Argvs[0][0] != "altool" || rec.Argvs[0][1] != "--validate-app" {
		t.Fatalf("unexpected argvs %v", rec.Argvs)
	}
}
