package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 基于 fsnotify 监听配置文件变更，变化后重新加载并回调。
// CooldownTime 内的重复事件被合并，避免编辑器多次写入触发抖动。
type Watcher struct {
	Path     string
	Cooldown time.Duration

	watcher    *fsnotify.Watcher
	lastReload time.Time
}

// NewWatcher 创建配置监听器。
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{Path: path, Cooldown: 2 * time.Second, watcher: fw}, nil
}

// Start 阻塞监听直到 ctx 取消；onUpdate 收到每次成功加载的新配置。
// 加载失败的变更被跳过，保留旧配置继续运行。
func (w *Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if err := w.watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write != fsnotify.Write &&
				event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if time.Since(w.lastReload) < w.Cooldown {
				continue
			}
			w.lastReload = time.Now()
			if cfg, err := LoadWithEnvOverrides(w.Path); err == nil && onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
