package dataset

import (
	"fmt"
	"sync"
)

// LoadFunc 构建一个新快照（文件或数据库来源）
type LoadFunc func() (*Snapshot, error)

// Store 持有当前快照并支持原子重载。
// 处理器只取快照指针读，重载不会影响进行中的请求。
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
	load LoadFunc
}

// NewStore 用给定的加载函数创建 Store 并完成首次加载
func NewStore(load LoadFunc) (*Store, error) {
	if load == nil {
		return nil, fmt.Errorf("NewStore: load func is nil")
	}
	snap, err := load()
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return &Store{snap: snap, load: load}, nil
}

// Snapshot 返回当前快照
func (st *Store) Snapshot() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}

// Reload 重新加载并替换快照。失败时保留旧快照。
func (st *Store) Reload() (*Snapshot, error) {
	snap, err := st.load()
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}

	st.mu.Lock()
	st.snap = snap
	st.mu.Unlock()

	return snap, nil
}
