package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/pkg/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	cuisine TEXT NOT NULL DEFAULT '',
	ingredients JSONB NOT NULL,
	instructions JSONB NOT NULL DEFAULT '[]',
	dietary_tags JSONB NOT NULL DEFAULT '[]',
	prep_time TEXT,
	servings INTEGER
);
`

const selectColumns = `SELECT id, name, cuisine, ingredients, instructions, dietary_tags, prep_time, servings FROM recipes`

// recipeRow recipes 資料表的一列
type recipeRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Cuisine      string         `db:"cuisine"`
	Ingredients  []byte         `db:"ingredients"`
	Instructions []byte         `db:"instructions"`
	DietaryTags  []byte         `db:"dietary_tags"`
	PrepTime     sql.NullString `db:"prep_time"`
	Servings     sql.NullInt64  `db:"servings"`
}

// PostgresStore 以 PostgreSQL 儲存食譜
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore 連線並建立資料表
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, common.ErrServiceUnavailable.WithMessage("failed to connect to database").Wrap(err)
	}
	s := NewPostgresStoreFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB 使用既有連線
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate 建立 recipes 資料表
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return common.ErrInternalError.WithMessage("failed to create recipes table").Wrap(err)
	}
	return nil
}

// Close 關閉連線
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Get 依 ID 取得食譜
func (s *PostgresStore) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	var row recipeRow
	err := s.db.GetContext(ctx, &row, selectColumns+` WHERE id = $1`, strings.TrimSpace(id))
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Recipe{}, common.ErrNotFound.WithMessage("recipe %s not found", id)
	}
	if err != nil {
		return recipe.Recipe{}, common.ErrServiceUnavailable.WithMessage("failed to get recipe %s", id).Wrap(err)
	}
	return row.toRecipe()
}

// Search 名稱前綴比對，依寫入順序
func (s *PostgresStore) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	var rows []recipeRow
	err := s.db.SelectContext(ctx, &rows,
		selectColumns+` WHERE lower(name) LIKE $1 ESCAPE '\' ORDER BY seq`,
		escapeLike(normalizeQuery(query))+"%",
	)
	if err != nil {
		return nil, common.ErrServiceUnavailable.WithMessage("failed to search recipes").Wrap(err)
	}

	out := make([]recipe.Recipe, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRecipe()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Save 新增或更新食譜
func (s *PostgresStore) Save(ctx context.Context, r recipe.Recipe) error {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return common.ErrInternalError.WithMessage("failed to marshal ingredients").Wrap(err)
	}
	instructions, err := json.Marshal(nonNil(r.Instructions))
	if err != nil {
		return common.ErrInternalError.WithMessage("failed to marshal instructions").Wrap(err)
	}
	tags, err := json.Marshal(nonNil(r.DietaryTags))
	if err != nil {
		return common.ErrInternalError.WithMessage("failed to marshal dietary tags").Wrap(err)
	}

	var prepTime sql.NullString
	if r.PrepTime != nil {
		prepTime = sql.NullString{String: *r.PrepTime, Valid: true}
	}
	var servings sql.NullInt64
	if r.Servings != nil {
		servings = sql.NullInt64{Int64: int64(*r.Servings), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipes (id, name, cuisine, ingredients, instructions, dietary_tags, prep_time, servings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET name = $2, cuisine = $3, ingredients = $4, instructions = $5,
			dietary_tags = $6, prep_time = $7, servings = $8`,
		r.ID, r.Name, r.Cuisine, ingredients, instructions, tags, prepTime, servings,
	)
	if err != nil {
		return common.ErrServiceUnavailable.WithMessage("failed to save recipe %s", r.ID).Wrap(err)
	}
	return nil
}

// Count 食譜數量
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM recipes`); err != nil {
		return 0, common.ErrServiceUnavailable.WithMessage("failed to count recipes").Wrap(err)
	}
	return n, nil
}

// Seed 資料表為空時寫入種子食譜
func (s *PostgresStore) Seed(ctx context.Context, recipes []recipe.Recipe) error {
	// 已有資料時不覆寫
	n, err := s.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, r := range recipes {
		if err := s.Save(ctx, r); err != nil {
			return err
		}
	}
	common.LogInfo("Seeded recipe catalog", zap.Int("count", len(recipes)))
	return nil
}

// toRecipe 資料列一律經過 recipe.FromRaw 驗證
func (row recipeRow) toRecipe() (recipe.Recipe, error) {
	raw := recipe.RawRecipe{
		ID:      row.ID,
		Name:    row.Name,
		Cuisine: row.Cuisine,
	}
	if err := json.Unmarshal(row.Ingredients, &raw.Ingredients); err != nil {
		return recipe.Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: bad ingredients column", row.ID).Wrap(err)
	}
	if len(row.Instructions) > 0 {
		if err := json.Unmarshal(row.Instructions, &raw.Instructions); err != nil {
			return recipe.Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: bad instructions column", row.ID).Wrap(err)
		}
	}
	if len(row.DietaryTags) > 0 {
		if err := json.Unmarshal(row.DietaryTags, &raw.DietaryTags); err != nil {
			return recipe.Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: bad dietary_tags column", row.ID).Wrap(err)
		}
	}
	if row.PrepTime.Valid {
		raw.PrepTime = row.PrepTime.String
	}
	if row.Servings.Valid {
		raw.Servings = int(row.Servings.Int64)
	}
	return recipe.FromRaw(raw)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Ping 檢查資料庫連線
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
