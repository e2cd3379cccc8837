// Package pgyer uploads packages to the pgyer ad-hoc distribution service.
package pgyer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cabinetapp/autobuild/internal/config"
)

var (
	// ErrMalformedResponse means the service answered 200 with a body that
	// is not the documented JSON envelope.
	ErrMalformedResponse = errors.New("malformed pgyer response")

	// ErrNetwork means the request never got an HTTP response.
	ErrNetwork = errors.New("pgyer unreachable")
)

// HTTPStatusError is returned for any non-200 answer. The body is not read.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error, code: %d", e.StatusCode)
}

// ServiceError is a well-formed response with a non-zero code. Its Error is
// the service's message verbatim.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Result is a successful upload.
type Result struct {
	ShortcutURL string
	DownloadURL string
}

// Client posts packages to pgyer.
type Client struct {
	Config config.Pgyer
	HTTP   *http.Client
	Logger log.Interface

	// Progress OPTIONALLY returns a writer that observes the package bytes as
	// they are sent. total is the package size.
	Progress func(total int64) io.Writer
}

// NewClient returns a Client whose requests time out after cfg.UploadTimeout.
func NewClient(cfg config.Config, logger log.Interface) *Client {
	return &Client{
		Config: cfg.Pgyer,
		HTTP:   &http.Client{Timeout: cfg.UploadTimeout.Std()},
		Logger: logger,
	}
}

// Upload posts the package at ipaPath with an optional release description.
func (c *Client) Upload(ctx context.Context, ipaPath, description string) (*Result, error) {
	f, err := os.Open(ipaPath)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open package: %s is a directory", ipaPath)
	}

	var src io.Reader = f
	if c.Progress != nil {
		src = io.TeeReader(f, c.Progress(info.Size()))
	}

	body, contentType := c.form(src, filepath.Base(ipaPath), description)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.UploadURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	c.Logger.WithFields(log.Fields{
		"package": ipaPath,
		"size":    info.Size(),
		"url":     c.Config.UploadURL,
	}).Info("uploading to pgyer")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}
	return c.decode(resp.Body)
}

// form streams the multipart body so the package is never held in memory.
func (c *Client) form(file io.Reader, filename, description string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeForm(mw, file, filename, description))
	}()
	return pr, mw.FormDataContentType()
}

func (c *Client) writeForm(mw *multipart.Writer, file io.Reader, filename, description string) error {
	fields := [][2]string{
		{"uKey", c.Config.UserKey},
		{"_api_key", c.Config.APIKey},
		{"publishRange", "2"},
		{"isPublishToPublic", "2"},
		{"password", ""},
	}
	if description != "" {
		fields = append(fields, [2]string{"updateDescription", description})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

type response struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    struct {
		AppShortcutURL string `json:"appShortcutUrl"`
	} `json:"data"`
}

func (c *Client) decode(body io.Reader) (*Result, error) {
	var r response
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if r.Code == nil {
		return nil, fmt.Errorf("%w: missing code", ErrMalformedResponse)
	}
	if *r.Code != 0 {
		return nil, &ServiceError{Code: *r.Code, Message: r.Message}
	}
	if r.Data.AppShortcutURL == "" {
		return nil, fmt.Errorf("%w: missing data.appShortcutUrl", ErrMalformedResponse)
	}
	return &Result{
		ShortcutURL: r.Data.AppShortcutURL,
		DownloadURL: strings.TrimSuffix(c.Config.DownloadBaseURL, "/") + "/" + r.Data.AppShortcutURL,
	}, nil
}
