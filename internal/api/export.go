package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// Export is a downloaded transcription file.
type Export struct {
	Filename string
	Data     []byte
}

const exportFallbackName = "transcription.txt"

// ExportLatest downloads the caller's most recent transcription as a
// file. The filename comes from the Content-Disposition header, falling
// back to a fixed name when the header is absent or unparsable.
func (c *Client) ExportLatest(ctx context.Context) (*Export, error) {
	if !c.session.Authenticated() {
		return nil, ErrUnauthenticated
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/export/latest", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	return &Export{
		Filename: dispositionFilename(resp.Header.Get("Content-Disposition")),
		Data:     data,
	}, nil
}

func dispositionFilename(disposition string) string {
	if disposition == "" {
		return exportFallbackName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return exportFallbackName
	}
	return params["filename"]
}
