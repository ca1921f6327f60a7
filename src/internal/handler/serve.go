package handler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admi-n/chainintel/src/config"
	"github.com/admi-n/chainintel/src/internal"
	"github.com/admi-n/chainintel/src/internal/dataset"
	"github.com/admi-n/chainintel/src/internal/server"
)

// RunServe 启动看板 HTTP 服务，阻塞直到收到退出信号
func RunServe(cfg internal.ServeConfig) error {
	fmt.Println("🚀 启动 ChainIntel 看板服务...")

	load, cleanup, err := buildLoader(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	store, err := dataset.NewStore(load)
	if err != nil {
		return fmt.Errorf("加载数据集失败: %w", err)
	}

	snap := store.Snapshot()
	fmt.Printf("📦 数据集已加载: %d 个钱包, %d 条摘要", len(snap.Wallets), len(snap.Summaries))
	if snap.SkippedRows > 0 {
		fmt.Printf(" (跳过畸形行 %d)", snap.SkippedRows)
	}
	fmt.Println()

	srv := server.NewServer(cfg.Addr, store, cfg.Source, cfg.Verbose)
	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("启动服务失败: %w", err)
	}
	fmt.Printf("✅ 看板已就绪: http://localhost%s/app/\n", cfg.Addr)

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n⚠️  收到退出信号，正在关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}

	fmt.Println("✅ 服务已关闭")
	return nil
}

// buildLoader 根据数据来源构建快照加载函数
func buildLoader(cfg internal.ServeConfig) (dataset.LoadFunc, func(), error) {
	switch cfg.Source {
	case "", "file":
		csvPath := cfg.CSVPath
		if csvPath == "" {
			csvPath = config.GetWalletsCSVPath()
		}
		summariesPath := cfg.SummariesPath
		if summariesPath == "" {
			summariesPath = config.GetSummariesJSONPath()
		}
		load := func() (*dataset.Snapshot, error) {
			return dataset.Load(csvPath, summariesPath)
		}
		return load, nil, nil

	case "db":
		db, err := config.InitDB()
		if err != nil {
			return nil, nil, fmt.Errorf("初始化数据库失败: %w", err)
		}
		load := func() (*dataset.Snapshot, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			rows, err := config.GetWallets(ctx, db, 0)
			if err != nil {
				return nil, fmt.Errorf("读取钱包表失败: %w", err)
			}
			summaries, err := config.GetSummaries(ctx, db)
			if err != nil {
				return nil, fmt.Errorf("读取摘要表失败: %w", err)
			}
			return dataset.SnapshotFromRows(rows, summaries), nil
		}
		cleanup := func() { db.Close() }
		return load, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("不支持的数据来源: %s (支持: file, db)", cfg.Source)
	}
}
