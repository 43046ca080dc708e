package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tn-portal/tnscribe/internal/stream"
)

// Chunk is one numbered segment of transcribed text. Index is the
// segment's position in the source audio; delivery order is network
// arrival order, which normally matches but is not guaranteed to.
type Chunk struct {
	Index int
	Text  string
}

// DefaultLanguage asks the server to auto-detect.
const DefaultLanguage = "auto"

// TranscribeStream is one in-flight transcription operation. Pull events
// with Next until it returns io.EOF (success) or a typed failure; Close
// releases the response body and aborts any remaining transfer.
type TranscribeStream struct {
	ctx      context.Context
	body     io.ReadCloser
	dec      *stream.LineDecoder
	done     bool
	complete bool
	termErr  error
}

// Transcribe uploads audio and opens the event stream. It fails before
// any network I/O when no session is active or no payload is supplied.
// The operation mutates nothing but the wire; session state is untouched.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*TranscribeStream, error) {
	if !c.session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if audio == nil || filename == "" {
		return nil, ErrNoPayload
	}
	if language == "" {
		language = DefaultLanguage
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("audio", filename)
		if err == nil {
			_, err = io.Copy(part, audio)
		}
		if err == nil {
			err = mw.WriteField("language", language)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/transcribe", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := errorMessage(resp.Body)
		resp.Body.Close()
		return nil, &RequestError{Status: resp.StatusCode, Message: msg}
	}

	log.Debug().Str("file", filename).Str("language", language).Msg("transcription stream open")
	return &TranscribeStream{
		ctx:  ctx,
		body: resp.Body,
		dec:  stream.NewLineDecoder(resp.Body),
	}, nil
}

// transcriptRecord is the wire shape of one streamed NDJSON line.
type transcriptRecord struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Next returns the next chunk in decode order. Terminal returns, each of
// which also ends the operation:
//   - io.EOF after an explicit complete record, or on a clean end of
//     stream without one (the server may close after its final chunk);
//   - *RemoteError for an explicit error record;
//   - *ProtocolError for a line that is not a recognized record;
//   - ErrCancelled when the caller's context was cancelled mid-read.
//
// After a terminal return, Next keeps returning the same outcome.
func (s *TranscribeStream) Next() (Chunk, error) {
	if s.done {
		if s.termErr != nil {
			return Chunk{}, s.termErr
		}
		return Chunk{}, io.EOF
	}

	line, err := s.dec.Next()
	if err == io.EOF {
		s.done = true
		return Chunk{}, io.EOF
	}
	if err != nil {
		if s.ctx.Err() != nil {
			return Chunk{}, s.terminate(fmt.Errorf("%w: %v", ErrCancelled, s.ctx.Err()))
		}
		return Chunk{}, s.terminate(fmt.Errorf("read stream: %w", err))
	}

	var rec transcriptRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Chunk{}, s.terminate(&ProtocolError{Line: line, Reason: "invalid JSON"})
	}

	switch rec.Type {
	case "chunk":
		return Chunk{Index: rec.Index, Text: rec.Text}, nil
	case "error":
		return Chunk{}, s.terminate(&RemoteError{Message: rec.Message})
	case "complete":
		// Anything after the marker is ignored, not an error.
		s.done = true
		s.complete = true
		return Chunk{}, io.EOF
	default:
		return Chunk{}, s.terminate(&ProtocolError{Line: line, Reason: "unrecognized record type " + rec.Type})
	}
}

// Completed reports whether an explicit complete marker was seen.
// A stream that ended cleanly without one is still a success; strict
// callers can use this to tell the two apart.
func (s *TranscribeStream) Completed() bool {
	return s.complete
}

func (s *TranscribeStream) Close() error {
	return s.body.Close()
}

func (s *TranscribeStream) terminate(err error) error {
	s.done = true
	s.termErr = err
	return err
}
