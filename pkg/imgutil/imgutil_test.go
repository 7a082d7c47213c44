package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// テスト用のダミー画像（w x h の赤い四角）を作成するヘルパー
func createDummyImageData(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func TestEnsurePNG(t *testing.T) {
	t.Run("PNGはそのまま返すこと", func(t *testing.T) {
		data := createDummyImageData(t, "png", 4, 4)
		got, err := EnsurePNG(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Error("PNG data should be returned unchanged")
		}
	})

	t.Run("JPEGをPNGに変換できること", func(t *testing.T) {
		data := createDummyImageData(t, "jpeg", 8, 6)
		got, err := EnsurePNG(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsPNG(got) {
			t.Fatal("output should be PNG")
		}
		img, err := png.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
			t.Errorf("unexpected bounds: %v", img.Bounds())
		}
	})

	t.Run("不正なデータはエラーになること", func(t *testing.T) {
		if _, err := EnsurePNG([]byte("not an image")); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestFitPNG(t *testing.T) {
	t.Run("指定サイズに拡大できること", func(t *testing.T) {
		data := createDummyImageData(t, "png", 4, 4)
		got, err := FitPNG(data, 16, 32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 32 {
			t.Errorf("unexpected bounds: %v", img.Bounds())
		}
		r, g, b, _ := img.At(15, 31).RGBA()
		if r>>8 != 255 || g != 0 || b != 0 {
			t.Errorf("nearest neighbour should keep the exact colour, got %d %d %d", r>>8, g, b)
		}
	})

	t.Run("同じサイズならそのまま返すこと", func(t *testing.T) {
		data := createDummyImageData(t, "png", 5, 5)
		got, err := FitPNG(data, 5, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Error("data should be unchanged")
		}
	})

	t.Run("不正なサイズはエラーになること", func(t *testing.T) {
		data := createDummyImageData(t, "png", 5, 5)
		if _, err := FitPNG(data, 0, 5); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
