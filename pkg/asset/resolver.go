package asset

import (
	"fmt"
	"time"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は生成されたスプライトを格納するデフォルトのディレクトリ名です。
	DefaultOutputDir = "output"
	// ImageExt はスプライト画像の拡張子です。
	ImageExt = ".png"
	// MetadataSuffix はメタデータファイル名の接尾辞です。
	MetadataSuffix = "_metadata.json"
	// TimestampLayout は出力ディレクトリ名に付ける時刻の書式 (YYYYmmdd_HHMMSS) なのだ。
	TimestampLayout = "20060102_150405"
)

// ImageFileName は1始まりの index から "{prefix}_{index:03d}.png" を作ります。
func ImageFileName(prefix string, index int) string {
	return fmt.Sprintf("%s_%03d%s", prefix, index, ImageExt)
}

// MetadataFileName は "{prefix}_{index:03d}_metadata.json" を作ります。
func MetadataFileName(prefix string, index int) string {
	return fmt.Sprintf("%s_%03d%s", prefix, index, MetadataSuffix)
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// 最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// BatchName は出力ディレクトリ名とファイル接頭辞を兼ねる "{stem}_{YYYYmmdd_HHMMSS}" を返します。
func BatchName(stem string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", stem, ts.Format(TimestampLayout))
}
