package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"card-psycho/internal/domain"
)

func testCard(name string) domain.CardImage {
	return domain.CardImage{Name: name, MIME: "image/png", Data: []byte{1, 2, 3}}
}

func TestHTTPClientAnalyzeCard(t *testing.T) {
	var gotPath, gotFilename, gotMIME string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotMIME = header.Header.Get("Content-Type")
		buf := make([]byte, 8)
		n, _ := file.Read(buf)
		gotBody = buf[:n]
		w.Write([]byte(`{"psycho_score": 8.2}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	body, err := client.AnalyzeCard(context.Background(), testCard("mine.png"))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if string(body) != `{"psycho_score": 8.2}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if gotPath != "/api/analyze/psycho-score" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotFilename != "mine.png" || gotMIME != "image/png" {
		t.Fatalf("unexpected part metadata: %q / %q", gotFilename, gotMIME)
	}
	if string(gotBody) != "\x01\x02\x03" {
		t.Fatalf("unexpected part payload: %v", gotBody)
	}
}

func TestHTTPClientBattleAnalysisFields(t *testing.T) {
	var originalName, contenderName string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze/alpha-vs-beta" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if _, header, err := r.FormFile("original"); err == nil {
			originalName = header.Filename
		}
		if _, header, err := r.FormFile("contender"); err == nil {
			contenderName = header.Filename
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	if _, err := client.BattleAnalysis(context.Background(), testCard("mine.png"), testCard("theirs.png")); err != nil {
		t.Fatalf("battle analysis failed: %v", err)
	}
	if originalName != "mine.png" || contenderName != "theirs.png" {
		t.Fatalf("multipart fields mismatched: original=%q contender=%q", originalName, contenderName)
	}
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	_, err := client.AnalyzeCard(context.Background(), testCard("mine.png"))

	var reqErr *RequestFailedError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected RequestFailedError with status 500, got %v", err)
	}
}

func TestHTTPClientTransportError(t *testing.T) {
	// Puerto cerrado: el request nunca obtiene respuesta.
	client := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := client.AnalyzeCard(context.Background(), testCard("mine.png"))

	var reqErr *RequestFailedError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestFailedError, got %v", err)
	}
	if reqErr.Status != 0 {
		t.Fatalf("expected status 0 without response, got %d", reqErr.Status)
	}
	if reqErr.Unwrap() == nil {
		t.Fatalf("expected wrapped transport error")
	}
}

func TestHTTPClientFetchAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/audio/file/abc.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)

	t.Run("valid path", func(t *testing.T) {
		data, contentType, err := client.FetchAudio(context.Background(), "/api/audio/file/abc.mp3")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if string(data) != "mp3-bytes" || contentType != "audio/mpeg" {
			t.Fatalf("unexpected response: %q / %q", data, contentType)
		}
	})

	t.Run("relative path rejected", func(t *testing.T) {
		if _, _, err := client.FetchAudio(context.Background(), "api/audio/file/abc.mp3"); !errors.Is(err, ErrInvalidAudioPath) {
			t.Fatalf("expected ErrInvalidAudioPath, got %v", err)
		}
	})

	t.Run("traversal rejected", func(t *testing.T) {
		if _, _, err := client.FetchAudio(context.Background(), "/api/audio/../secret"); !errors.Is(err, ErrInvalidAudioPath) {
			t.Fatalf("expected ErrInvalidAudioPath, got %v", err)
		}
	})

	t.Run("missing asset", func(t *testing.T) {
		_, _, err := client.FetchAudio(context.Background(), "/api/audio/file/missing.mp3")
		var reqErr *RequestFailedError
		if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound {
			t.Fatalf("expected RequestFailedError with status 404, got %v", err)
		}
	})
}

func TestHTTPClientGenerateAudioFields(t *testing.T) {
	var gotText, gotVoice string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/audio/generate" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.FormValue("text")
		gotVoice = r.FormValue("voice_id")
		w.Write([]byte(`{"audio_url": "/api/audio/file/out.mp3"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	if _, err := client.GenerateAudio(context.Background(), "Nice card.", "patrick"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if gotText != "Nice card." || gotVoice != "patrick" {
		t.Fatalf("unexpected form fields: %q / %q", gotText, gotVoice)
	}
}

func TestHTTPClientCritiqueAudioFields(t *testing.T) {
	var gotText string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/audio/patrick-critique" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.FormValue("text")
		w.Write([]byte(`{"audio_url": "/api/audio/file/out.mp3"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	if _, err := client.CritiqueAudio(context.Background(), "Nice card."); err != nil {
		t.Fatalf("critique audio failed: %v", err)
	}
	if gotText != "Nice card." {
		t.Fatalf("unexpected text field: %q", gotText)
	}
}

func TestHTTPClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, nil)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health failed: %v", err)
	}
}
