package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"gopkg.in/yaml.v3"
)

// 更新可能なフィールド名です。英語名と文書上のスペイン語名のどちらでも受け付けます。
const (
	FieldBase    = "base"
	FieldStyle   = "style"
	FieldQuality = "quality"
)

// ErrTemplateFallback はテンプレート文書の代わりに組み込みの既定値を使っていることを示します。
var ErrTemplateFallback = errors.New("組み込みの既定テンプレートを使用しています")

// LoadError はテンプレート文書の読み込み失敗を表します。Load は常に使えるストアを返すため、
// このエラーは呼び出し元への報告用なのだ。
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("テンプレート文書 '%s' を読み込めませんでした: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrTemplateFallback, e.Err} }

// Store はテンプレート文書を1つのファイルパスに紐づけて管理します。
// 変更は即座にファイルへ書き戻します（write-through）。
type Store struct {
	path string
	mu   sync.RWMutex
	doc  domain.TemplateDocument
}

// Load は path の文書を読み込みます。ファイルがない、または解析に失敗した場合は
// 組み込みの既定文書で初期化したストアと *LoadError を返すのだ。
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	doc, err := readDocument(path)
	if err != nil {
		slog.Warn("テンプレート文書の読み込みに失敗したため既定値を使います", "path", path, "error", err)
		s.doc = DefaultDocument()
		return s, &LoadError{Path: path, Err: err}
	}

	s.doc = doc
	slog.Debug("テンプレート文書を読み込みました", "path", path, "categories", len(doc.Preprompts))
	return s, nil
}

// NewStore は既存の文書からストアを作ります。主にテストと組み込み用途です。
func NewStore(path string, doc domain.TemplateDocument) *Store {
	d := doc.Clone()
	d.Normalize()
	return &Store{path: path, doc: d}
}

func readDocument(path string) (domain.TemplateDocument, error) {
	// 文書にない既定値キーは組み込みの値のまま残るのだ
	doc := domain.TemplateDocument{Defaults: DefaultDocument().Defaults}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, fmt.Errorf("ファイルが見つかりません: %w", err)
		}
		return doc, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return doc, fmt.Errorf("文書の解析に失敗しました: %w", err)
	}

	doc.Normalize()
	doc.Defaults = fillDefaults(doc.Defaults)
	return doc, nil
}

// Save は文書全体をファイルへ書き出します。失敗しても呼び出し元を止めず false を返します。
func (s *Store) Save() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() bool {
	data, err := encodeDocument(s.path, s.doc)
	if err != nil {
		slog.Error("テンプレート文書のエンコードに失敗しました", "path", s.path, "error", err)
		return false
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("テンプレート文書のディレクトリを作成できませんでした", "dir", dir, "error", err)
			return false
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.Error("テンプレート文書の保存に失敗しました", "path", s.path, "error", err)
		return false
	}
	return true
}

func encodeDocument(path string, doc domain.TemplateDocument) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(doc)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Path は紐づいているファイルパスを返します。
func (s *Store) Path() string { return s.path }

// Categories はカテゴリ名を昇順で返します。
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.doc.Preprompts)
}

// Animations はアニメーション名を昇順で返します。
func (s *Store) Animations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.doc.Animations)
}

// Biomes はバイオーム名を昇順で返します。
func (s *Store) Biomes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.doc.Biomes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Preprompt はカテゴリの断片を返します。
func (s *Store) Preprompt(category string) (domain.Preprompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.doc.Preprompts[category]
	return p, ok
}

// Biome はバイオームの描写を返します。
func (s *Store) Biome(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.doc.Biomes[name]
	return b, ok
}

// Frames はアニメーションのフレーム記述を登録順のコピーで返します。
func (s *Store) Frames(animation string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	frames, ok := s.doc.Animations[animation]
	if !ok {
		return nil, false
	}
	return append([]string(nil), frames...), true
}

// Defaults は文書に保存された生成パラメータの既定値を返します。
func (s *Store) Defaults() domain.DefaultSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Defaults
}

// UpdateField はカテゴリの1フィールドを更新して即座に保存します。
// カテゴリが存在しなければ作成します。未知のフィールド名では何も書き込まず false を返すのだ。
func (s *Store) UpdateField(category, field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.doc.Preprompts[category]
	switch strings.ToLower(field) {
	case FieldBase:
		p.Base = value
	case FieldStyle, "estilo":
		p.Style = value
	case FieldQuality, "calidad":
		p.Quality = value
	default:
		slog.Warn("未知のテンプレートフィールドです", "category", category, "field", field)
		return false
	}

	if s.doc.Preprompts == nil {
		s.doc.Preprompts = make(domain.TemplateSet)
	}
	s.doc.Preprompts[category] = p
	return s.saveLocked()
}
