package service

import (
	"context"

	"campus-hub/backend/internal/repository"
)

// runInTx 在事务中执行 fn；fn 返回错误或 panic 时回滚
// 仓储未绑定数据库（单元测试）时直接以原仓储执行
func runInTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) (err error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	if tx == nil {
		return fn(repo)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
