package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/udisondev/seabattle/internal/db/migrations"
)

// RunMigrations накатывает embedded goose-миграции на базу по DSN.
// Вызывается при старте сервера до создания пула — схема всегда
// актуальна к моменту первого запроса.
func RunMigrations(ctx context.Context, dsn string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	// sql.Open не подключается — проверяем доступность базы до goose,
	// чтобы ошибка "база не поднялась" не маскировалась под ошибку миграции.
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping before migrations: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
