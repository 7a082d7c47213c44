package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// pngSignature は PNG ファイル先頭の8バイトです。
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsPNG はデータが PNG シグネチャで始まっているかを判定します。
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// EnsurePNG は画像データ（PNG, GIF, JPEG等）を PNG として返します。
// すでに PNG ならそのまま返すのだ。
func EnsurePNG(data []byte) ([]byte, error) {
	if IsPNG(data) {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return encodePNG(img)
}

// FitPNG は画像を width x height に最近傍補間で拡縮した PNG を返します。
// ドット絵のエッジをぼかさないためなのだ。サイズが一致していればデータをそのまま返します。
func FitPNG(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("不正なサイズです: %dx%d", width, height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height && IsPNG(data) {
		return data, nil
	}
	scaled := resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor)
	return encodePNG(scaled)
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
