package generator

import (
	"context"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// ArtifactSaver は生成物の保存先です。asset.Store が実装します。
type ArtifactSaver interface {
	SaveImage(ctx context.Context, img domain.Image, path string, width, height int) error
	SaveMetadata(ctx context.Context, record domain.MetadataRecord, path string) error
}

// Recorder は保存に成功したアイテムを外部へ記録します。journal.Journal が実装します。
type Recorder interface {
	Record(ctx context.Context, batchID string, result ItemResult) error
}
