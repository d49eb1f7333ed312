// Package embedding 提供 Embedding 供应商抽象与批量适配。
//
// 供应商通过注册表按名称创建，向量维度与批大小约束由 Adapter 统一把关。
package embedding

import (
	"context"
	"fmt"
	"sync"
)

// Provider 定义 Embedding 供应商接口。
type Provider interface {
	// Embed 为多个文本生成向量嵌入，结果与输入一一对应且顺序一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// Factory 供应商工厂函数类型。
type Factory func(config map[string]any) (Provider, error)

// registry 供应商注册表。
var registry = &providerRegistry{
	factories: make(map[string]Factory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Register 注册供应商工厂。
func Register(name string, factory Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

// New 根据名称创建供应商实例。
func New(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", name)
	}

	return factory(config)
}

// List 列出所有已注册的供应商名称。
func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	return names
}
