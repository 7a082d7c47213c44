package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/imgutil"
)

// OutputWriter は生成物をパスへ書き出す出力先です。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムへ書き出す OutputWriter なのだ。
// 同じディレクトリに一時ファイルを作ってから rename するので、途中で失敗しても半端なファイルは残りません。
type LocalWriter struct{}

// NewLocalWriter は LocalWriter を生成します。
func NewLocalWriter() *LocalWriter { return &LocalWriter{} }

// Write は path を上書きします。親ディレクトリは事前に作られている必要があります。
func (w *LocalWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// PersistError は画像またはメタデータの保存失敗を表します。
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s の保存に失敗しました: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store は生成された画像とメタデータを書き出します。
type Store struct {
	writer OutputWriter
	// fit が true なら、要求サイズと違う画像を最近傍補間で合わせるのだ。
	fit bool
}

// Option は Store の設定を変更します。
type Option func(*Store)

// WithFitToSize は保存時に画像を要求サイズへ合わせるかを設定します。
func WithFitToSize(fit bool) Option {
	return func(s *Store) { s.fit = fit }
}

// NewStore は Store を生成します。
func NewStore(writer OutputWriter, opts ...Option) *Store {
	s := &Store{writer: writer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveImage は画像を PNG として path に保存します。PNG 以外は再エンコードするのだ。
// width と height が正で fit が有効なら、そのサイズに合わせます。
func (s *Store) SaveImage(ctx context.Context, img domain.Image, path string, width, height int) error {
	data, err := imgutil.EnsurePNG(img.Data)
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if s.fit && width > 0 && height > 0 {
		if data, err = imgutil.FitPNG(data, width, height); err != nil {
			return &PersistError{Path: path, Err: err}
		}
	}
	if err := s.writer.Write(ctx, path, bytes.NewReader(data), "image/png"); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// SaveMetadata はメタデータをインデント付き JSON で path に保存します。
func (s *Store) SaveMetadata(ctx context.Context, record domain.MetadataRecord, path string) error {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if err := s.writer.Write(ctx, path, buf, "application/json"); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}
