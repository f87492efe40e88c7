package engine

import "errors"

// Ошибки графа.
var (
	// ErrNoEntry — у графа не задан входной узел.
	ErrNoEntry = errors.New("graph has no entry node")

	// ErrNodeNotFound — узел не найден в графе.
	ErrNodeNotFound = errors.New("node not found in graph")

	// ErrDuplicateNode — узел с таким именем уже добавлен.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrDanglingEdge — ребро ссылается на несуществующий узел.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrNoOutgoingEdge — у нетерминального узла нет исходящего ребра.
	ErrNoOutgoingEdge = errors.New("node has no outgoing edge")

	// ErrConflictingEdges — у узла и прямое, и условное ребро.
	ErrConflictingEdges = errors.New("node has both direct and conditional edge")

	// ErrUnknownContentType — content type не соответствует ни одной ветке.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrBadRoute —условная функция вернула неизвестный узел.
	ErrBadRoute = errors.New("conditional edge returned unknown node")
)
