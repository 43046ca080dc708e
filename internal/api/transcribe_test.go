package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// transcribeHandler serves the given NDJSON lines after checking the
// multipart upload, flushing after each line to exercise real chunking.
func transcribeHandler(t *testing.T, lines ...string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)
		require.NotEmpty(t, r.FormValue("language"))

		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	})
	return mux
}

func drain(t *testing.T, s *TranscribeStream) ([]Chunk, error) {
	t.Helper()
	var chunks []Chunk
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
}

func TestTranscribePreconditions(t *testing.T) {
	requests := 0
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	_, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
	require.ErrorIs(t, err, ErrUnauthenticated)

	loginAs(t, sess, userProfile, "tok-1")
	_, err = client.Transcribe(context.Background(), nil, "a.wav", "auto")
	require.ErrorIs(t, err, ErrNoPayload)
	_, err = client.Transcribe(context.Background(), strings.NewReader("riff"), "", "auto")
	require.ErrorIs(t, err, ErrNoPayload)

	require.Zero(t, requests, "precondition failures must not reach the network")
}

func TestTranscribeClassifiesEvents(t *testing.T) {
	client, sess := newTestClient(t, transcribeHandler(t,
		`{"type":"chunk","index":1,"text":"bonjour"}`,
		`{"type":"chunk","index":3,"text":"bonjour à tous"}`,
		`{"type":"complete"}`,
		`{"type":"chunk","index":4,"text":"ignored after complete"}`,
	))
	loginAs(t, sess, userProfile, "tok-1")

	stream, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "")
	require.NoError(t, err)
	defer stream.Close()

	chunks, err := drain(t, stream)
	require.NoError(t, err)
	require.Equal(t, []Chunk{
		{Index: 1, Text: "bonjour"},
		{Index: 3, Text: "bonjour à tous"},
	}, chunks)
	require.True(t, stream.Completed())
}

func TestTranscribeLenientCleanEnd(t *testing.T) {
	client, sess := newTestClient(t, transcribeHandler(t,
		`{"type":"chunk","index":1,"text":"un"}`,
		`{"type":"chunk","index":2,"text":"deux"}`,
	))
	loginAs(t, sess, userProfile, "tok-1")

	stream, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
	require.NoError(t, err)
	defer stream.Close()

	chunks, err := drain(t, stream)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, "un", chunks[0].Text)
	require.Equal(t, "deux", chunks[1].Text)
	require.False(t, stream.Completed())
}

func TestTranscribeRemoteError(t *testing.T) {
	client, sess := newTestClient(t, transcribeHandler(t,
		`{"type":"chunk","index":1,"text":"un"}`,
		`{"type":"error","message":"boom"}`,
		`{"type":"chunk","index":2,"text":"never delivered"}`,
	))
	loginAs(t, sess, userProfile, "tok-1")

	stream, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
	require.NoError(t, err)
	defer stream.Close()

	chunks, err := drain(t, stream)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, "boom", remoteErr.Message)
	require.Len(t, chunks, 1)

	// Terminal outcome is sticky.
	_, err = stream.Next()
	require.ErrorAs(t, err, &remoteErr)
}

func TestTranscribeProtocolViolation(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
	}{
		{name: "unrecognized type", line: `{"type":"ping"}`},
		{name: "not json", line: `chunk one ready`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			client, sess := newTestClient(t, transcribeHandler(t,
				tc.line,
				`{"type":"chunk","index":1,"text":"never delivered"}`,
			))
			loginAs(t, sess, userProfile, "tok-1")

			stream, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
			require.NoError(t, err)
			defer stream.Close()

			chunks, err := drain(t, stream)
			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
			require.Equal(t, tc.line, protoErr.Line)
			require.Empty(t, chunks)
		})
	}
}

func TestTranscribeRejectedUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]string{"error": "fichier trop volumineux"})
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, userProfile, "tok-1")

	_, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusRequestEntityTooLarge, reqErr.Status)
	require.Equal(t, "fichier trop volumineux", reqErr.Message)
}

func TestTranscribeRejectedWithoutBodyUsesStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, userProfile, "tok-1")

	_, err := client.Transcribe(context.Background(), strings.NewReader("riff"), "a.wav", "auto")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Contains(t, reqErr.Error(), "502")
}

func TestTranscribeCancellation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"chunk","index":1,"text":"un"}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	client, sess := newTestClient(t, mux)
	loginAs(t, sess, userProfile, "tok-1")

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.Transcribe(ctx, strings.NewReader("riff"), "a.wav", "auto")
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Next()
	require.NoError(t, err)
	require.Equal(t, 1, chunk.Index)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = stream.Next()
	require.ErrorIs(t, err, ErrCancelled)
}
