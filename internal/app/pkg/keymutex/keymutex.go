package keymutex

import "sync"

// KeyMutex 键级互斥锁：同键串行，异键并行
// 条目按引用计数管理，最后一个持有者释放后即回收，
// 长期运行不随键空间增长积累内存
type KeyMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New 创建键级互斥锁
func New[K comparable]() *KeyMutex[K] {
	return &KeyMutex[K]{entries: make(map[K]*entry)}
}

// Lock 锁定指定键，阻塞直到获得锁
func (k *KeyMutex[K]) Lock(key K) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock 释放指定键，引用归零时回收条目
func (k *KeyMutex[K]) Unlock(key K) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keymutex: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Len 当前在途（持有或等待中）的键数量
func (k *KeyMutex[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
