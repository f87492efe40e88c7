package engine

import (
	"context"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
)

// End — специальное имя ребра, означающее завершение графа.
const End = "__end__"

// NodeKind — вид узла.
type NodeKind string

const (
	// KindLocal — узел выполняется внутри процесса оркестратора
	// (маршрутизация, без делегирования).
	KindLocal NodeKind = "local"

	// KindTask — узел делегируется воркеру через task-канал.
	KindTask NodeKind = "task"
)

// NodeFunc — функция выполнения узла.
// Возвращает обновлённое состояние либо ошибку; ошибка означает
// аварийное завершение job (политика — в оркестраторе).
type NodeFunc func(ctx context.Context, state *domain.JobState) (*domain.JobState, error)

// RouteFunc — условное ребро: по состоянию выбирает следующий узел
// (или End). Вызывается после успешного выполнения узла-источника.
type RouteFunc func(state *domain.JobState) (string, error)

// Node — узел графа. Иммутабелен после Build.
type Node struct {
	// Name — имя узла; для KindTask совпадает с именем задачи.
	Name string

	// Kind — вид узла.
	Kind NodeKind

	// Run — функция выполнения.
	Run NodeFunc
}

// Graph — декларативный граф пайплайна: узлы, прямые рёбра и
// условные рёбра. Строится один раз при старте и далее не мутируется.
// Стратегия выполнения ровно одна — последовательный обход через Next;
// деградированных fallback-режимов нет.
type Graph struct {
	entry  string
	nodes  map[string]*Node
	edges  map[string]string
	routes map[string]RouteFunc
	// targets — заявленные цели условных рёбер (валидация + DOT).
	targets map[string][]string
}

// Builder накапливает описание графа до вызова Build.
type Builder struct {
	entry  string
	nodes  map[string]*Node
	edges  map[string]string
	routes map[string]RouteFunc
	// targets — заявленные цели условных рёбер для статической проверки.
	targets map[string][]string
	err     error
}

// NewBuilder создаёт пустой Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:   make(map[string]*Node),
		edges:   make(map[string]string),
		routes:  make(map[string]RouteFunc),
		targets: make(map[string][]string),
	}
}

// AddNode добавляет узел.
func (b *Builder) AddNode(name string, kind NodeKind, run NodeFunc) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.err = fmt.Errorf("%w: %s", ErrDuplicateNode, name)
		return b
	}
	b.nodes[name] = &Node{Name: name, Kind: kind, Run: run}
	return b
}

// SetEntry задаёт входной узел.
func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// AddEdge добавляет прямое ребро from → to (to может быть End).
func (b *Builder) AddEdge(from, to string) *Builder {
	if b.err == nil {
		b.edges[from] = to
	}
	return b
}

// AddConditionalEdge добавляет условное ребро из from.
// targets — все узлы, которые route может вернуть (для валидации).
func (b *Builder) AddConditionalEdge(from string, route RouteFunc, targets ...string) *Builder {
	if b.err == nil {
		b.routes[from] = route
		b.targets[from] = targets
	}
	return b
}

// Build валидирует описание и возвращает иммутабельный Graph.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.entry == "" {
		return nil, ErrNoEntry
	}
	if _, exists := b.nodes[b.entry]; !exists {
		return nil, fmt.Errorf("%w: entry %s", ErrNodeNotFound, b.entry)
	}

	for from, to := range b.edges {
		if _, exists := b.nodes[from]; !exists {
			return nil, fmt.Errorf("%w: %s", ErrDanglingEdge, from)
		}
		if to != End {
			if _, exists := b.nodes[to]; !exists {
				return nil, fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, from, to)
			}
		}
	}

	for from, targets := range b.targets {
		if _, exists := b.nodes[from]; !exists {
			return nil, fmt.Errorf("%w: %s", ErrDanglingEdge, from)
		}
		for _, to := range targets {
			if to == End {
				continue
			}
			if _, exists := b.nodes[to]; !exists {
				return nil, fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, from, to)
			}
		}
	}

	// Каждый узел имеет ровно один способ продолжения
	for name := range b.nodes {
		_, hasEdge := b.edges[name]
		_, hasRoute := b.routes[name]
		if hasEdge && hasRoute {
			return nil, fmt.Errorf("%w: %s", ErrConflictingEdges, name)
		}
		if !hasEdge && !hasRoute {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	return &Graph{
		entry:   b.entry,
		nodes:   b.nodes,
		edges:   b.edges,
		routes:  b.routes,
		targets: b.targets,
	}, nil
}

// Entry возвращает имя входного узла.
func (g *Graph) Entry() string {
	return g.entry
}

// Node возвращает узел по имени.
func (g *Graph) Node(name string) (*Node, error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	return node, nil
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Next возвращает имя следующего узла после name (или End).
// Для условного ребра результат проверяется против известных узлов.
func (g *Graph) Next(name string, state *domain.JobState) (string, error) {
	if to, ok := g.edges[name]; ok {
		return to, nil
	}

	route, ok := g.routes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
	}

	to, err := route(state)
	if err != nil {
		return "", err
	}
	if to == End {
		return End, nil
	}
	if _, exists := g.nodes[to]; !exists {
		return "", fmt.Errorf("%w: %s -> %s", ErrBadRoute, name, to)
	}
	return to, nil
}
