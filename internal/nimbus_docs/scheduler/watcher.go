package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"nimbus-docs/internal/nimbus_docs/descriptor"
	"nimbus-docs/internal/nimbus_docs/model"
)

// DebounceDelay 文件连续变更的合并窗口
const DebounceDelay = 300 * time.Millisecond

// Worker 预加载描述文件，并在文件变更时重新加载
type Worker struct {
	Log    *zap.Logger
	Path   string
	OnLoad func([]model.EndpointDescriptor)

	wg sync.WaitGroup // 等待进行中的重新加载
}

// LoadOnce 读取一次描述文件，成功后回调 OnLoad
func (w *Worker) LoadOnce() error {
	descs, err := descriptor.LoadFile(w.Path)
	if err != nil {
		return err
	}
	w.OnLoad(descs)
	w.Log.Info("Preloaded descriptors",
		zap.String("file", w.Path),
		zap.Int("count", len(descs)),
	)
	return nil
}

// Run 监听文件所在目录直到 ctx 取消
// 重新加载失败时保留上一次的结果
func (w *Worker) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录而不是文件：编辑器常以 rename 方式保存
	if err := watcher.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.Path, err)
	}
	target := filepath.Clean(w.Path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil && debounce.Stop() {
			w.wg.Done()
		}
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("File watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil && debounce.Stop() {
				w.wg.Done()
			}
			w.wg.Add(1)
			debounce = time.AfterFunc(DebounceDelay, func() {
				defer w.wg.Done()
				if err := w.LoadOnce(); err != nil {
					w.Log.Warn("Failed to reload descriptors, keeping previous set",
						zap.String("file", w.Path),
						zap.Error(err),
					)
				}
			})
		}
	}
}
