package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/generator"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// DefaultRecentLimit は Recent に limit を指定しなかったときの件数です。
	DefaultRecentLimit = 20

	// timeLayout は文字列の大小と時刻の前後が一致する固定幅の書式なのだ。
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry は保存済みの生成物1件です。
type Entry struct {
	ID           string
	BatchID      string
	Index        int
	Prompt       string
	Seed         int64
	ImagePath    string
	MetadataPath string
	CreatedAt    time.Time
}

// Journal は生成した成果物を SQLite に索引として残します。
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open は dbPath のデータベースを開き、テーブルを用意します。親ディレクトリが無ければ作るのだ。
func Open(dbPath string) (*Journal, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ジャーナルのディレクトリ作成に失敗しました: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ジャーナルを開けませんでした: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ジャーナルに接続できませんでした: %w", err)
	}

	j := &Journal{db: db, now: time.Now}
	if err := j.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ジャーナルの初期化に失敗しました: %w", err)
	}
	return j, nil
}

func (j *Journal) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			item_index INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			seed INTEGER NOT NULL,
			image_path TEXT NOT NULL,
			metadata_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_batch ON artifacts (batch_id);`,
	}
	for _, q := range queries {
		if _, err := j.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close はデータベースを閉じます。
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record は成功したアイテムを1件追加します。
func (j *Journal) Record(ctx context.Context, batchID string, result generator.ItemResult) error {
	query := `INSERT INTO artifacts (id, batch_id, item_index, prompt, seed, image_path, metadata_path, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := j.db.ExecContext(ctx, query,
		uuid.NewString(),
		batchID,
		result.Index,
		result.Prompt,
		result.Seed,
		result.ImagePath,
		result.MetadataPath,
		j.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("生成履歴の書き込みに失敗しました: %w", err)
	}
	return nil
}

// Recent は新しい順に最大 limit 件を返します。
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `SELECT id, batch_id, item_index, prompt, seed, image_path, metadata_path, created_at
			  FROM artifacts ORDER BY created_at DESC, item_index DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("生成履歴の取得に失敗しました: %w", err)
	}
	return scanEntries(rows)
}

// Batch は指定したバッチのアイテムをインデックス順で返すのだ。
func (j *Journal) Batch(ctx context.Context, batchID string) ([]Entry, error) {
	query := `SELECT id, batch_id, item_index, prompt, seed, image_path, metadata_path, created_at
			  FROM artifacts WHERE batch_id = ? ORDER BY item_index`
	rows, err := j.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("バッチ %s の取得に失敗しました: %w", batchID, err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Index, &e.Prompt, &e.Seed, &e.ImagePath, &e.MetadataPath, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("作成日時 %q の解析に失敗しました: %w", createdAt, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
