package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"sync"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// --- Mocks ---

// eventLog はバックエンド呼び出しと進捗イベントの順序を記録するのだ。
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

type progressEvent struct {
	current, total int
	message        string
}

func recordingSink(log *eventLog, events *[]progressEvent) domain.ProgressSink {
	return func(current, total int, message string) {
		*events = append(*events, progressEvent{current, total, message})
		if log != nil {
			log.add("sink %d", current)
		}
	}
}

// mockBackend は呼び出し回数（1始まり）ごとに失敗を仕込めるバックエンドです。
type mockBackend struct {
	ready    bool
	failOn   map[int]error
	log      *eventLog
	calls    int
	requests []backend.Request
}

func (m *mockBackend) Load(ctx context.Context, sink domain.StatusSink) bool {
	m.ready = true
	return true
}

func (m *mockBackend) IsReady() bool { return m.ready }

func (m *mockBackend) Generate(ctx context.Context, req backend.Request) (*backend.Result, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.log != nil {
		m.log.add("generate %d", m.calls)
	}
	if err, ok := m.failOn[m.calls]; ok {
		return nil, backend.NewGenerationError("mock", err)
	}

	seed := req.Seed
	if seed < 0 {
		seed = int64(1000 + m.calls)
	}
	return &backend.Result{
		Image: domain.Image{Data: tinyPNG(), MimeType: "image/png"},
		Metadata: domain.MetadataRecord{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Width:          req.Width,
			Height:         req.Height,
			Steps:          req.Steps,
			GuidanceScale:  req.GuidanceScale,
			Seed:           seed,
			Timestamp:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Model:          "mock",
		},
	}, nil
}

func tinyPNG() []byte {
	buf := new(bytes.Buffer)
	_ = png.Encode(buf, image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	return buf.Bytes()
}

// mockSaver は指定したファイル名への画像保存を失敗させる ArtifactSaver なのだ。
type mockSaver struct {
	failImage map[string]bool
	images    []string
	metadata  []string
}

func (m *mockSaver) SaveImage(ctx context.Context, img domain.Image, path string, width, height int) error {
	if m.failImage[filepath.Base(path)] {
		return errors.New("disk full")
	}
	m.images = append(m.images, path)
	return nil
}

func (m *mockSaver) SaveMetadata(ctx context.Context, record domain.MetadataRecord, path string) error {
	m.metadata = append(m.metadata, path)
	return nil
}

type mockRecorder struct {
	batchIDs []string
	results  []ItemResult
	err      error
}

func (m *mockRecorder) Record(ctx context.Context, batchID string, result ItemResult) error {
	m.batchIDs = append(m.batchIDs, batchID)
	m.results = append(m.results, result)
	return m.err
}
