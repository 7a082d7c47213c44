package generator

// ItemResult は1アイテムの結果です。Err が nil なら保存まで成功しています。
type ItemResult struct {
	Index        int // 1始まり
	Prompt       string
	ImagePath    string
	MetadataPath string
	Seed         int64
	Err          error
}

// Report はバッチ全体の結果です。
type Report struct {
	BatchID   string
	OutputDir string
	Prefix    string
	Results   []ItemResult
}

// Paths は成功したアイテムの画像パスを入力順で返します。
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			paths = append(paths, res.ImagePath)
		}
	}
	return paths
}

// Failed は失敗したアイテムだけを返すのだ。
func (r *Report) Failed() []ItemResult {
	var failed []ItemResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
