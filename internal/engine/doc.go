// Package engine описывает workflow-граф пайплайна.
//
// Граф строится один раз при старте (MediaPipeline) и далее
// иммутабелен: узлы (локальные и делегируемые), прямые рёбра и
// условные рёбра с функциями маршрутизации. Выполнение графа —
// ответственность пакета orchestrator; engine только отвечает
// на вопрос "какой узел следующий".
package engine
