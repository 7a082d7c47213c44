package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"golang.org/x/sync/errgroup"
)

// CheckStatus は1項目の診断結果です。
type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusWarning CheckStatus = "warning"
	StatusError   CheckStatus = "error"
)

// CheckResult は診断1項目ぶんの結果なのだ。
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
}

// JournalOpener はジャーナルを開いて閉じられるかを確かめる関数です。nil なら診断を飛ばします。
type JournalOpener func(path string) error

// DoctorRunner は実行環境を診断します。
type DoctorRunner struct {
	TemplatesPath string
	OutputRoot    string
	JournalPath   string
	Backend       backend.Backend
	OpenJournal   JournalOpener
}

// Run はすべての診断を並行に実行し、定義順に結果を返します。
func (d *DoctorRunner) Run(ctx context.Context) []CheckResult {
	checks := []func(context.Context) CheckResult{
		d.checkTemplates,
		d.checkOutputRoot,
		d.checkBackend,
		d.checkJournal,
	}

	results := make([]CheckResult, len(checks))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, check := range checks {
		eg.Go(func() error {
			results[i] = check(egCtx)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// Healthy は error の項目が1つも無いかを返します。
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusError {
			return false
		}
	}
	return true
}

func (d *DoctorRunner) checkTemplates(ctx context.Context) CheckResult {
	const name = "テンプレート文書"
	store, err := templates.Load(d.TemplatesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{name, StatusWarning, fmt.Sprintf("%s がありません。デフォルトを使います", d.TemplatesPath)}
		}
		return CheckResult{name, StatusError, err.Error()}
	}
	return CheckResult{name, StatusOK, fmt.Sprintf("%s (カテゴリ: %s)", d.TemplatesPath, strings.Join(store.Categories(), ", "))}
}

func (d *DoctorRunner) checkOutputRoot(ctx context.Context) CheckResult {
	const name = "出力ディレクトリ"
	if err := os.MkdirAll(d.OutputRoot, 0o755); err != nil {
		return CheckResult{name, StatusError, err.Error()}
	}
	f, err := os.CreateTemp(d.OutputRoot, ".doctor-*")
	if err != nil {
		return CheckResult{name, StatusError, fmt.Sprintf("書き込めません: %v", err)}
	}
	f.Close()
	os.Remove(f.Name())
	return CheckResult{name, StatusOK, d.OutputRoot}
}

func (d *DoctorRunner) checkBackend(ctx context.Context) CheckResult {
	const name = "画像生成バックエンド"
	if d.Backend == nil {
		return CheckResult{name, StatusError, "バックエンドが設定されていません"}
	}
	var last string
	if !d.Backend.Load(ctx, func(m string) { last = m }) {
		return CheckResult{name, StatusError, last}
	}
	return CheckResult{name, StatusOK, last}
}

func (d *DoctorRunner) checkJournal(ctx context.Context) CheckResult {
	const name = "生成履歴"
	if d.JournalPath == "" || d.OpenJournal == nil {
		return CheckResult{name, StatusWarning, "無効です"}
	}
	if err := d.OpenJournal(d.JournalPath); err != nil {
		return CheckResult{name, StatusError, err.Error()}
	}
	return CheckResult{name, StatusOK, d.JournalPath}
}
