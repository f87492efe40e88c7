// Package orchestrator управляет жизненным циклом jobs.
//
// Engine отвечает за:
//   - Атомарный допуск job (create-if-absent, дубликат отклоняется)
//   - Горутину на каждый job, последовательно обходящую граф
//   - Сохранение состояния после каждого перехода узла
//   - Перевод ошибок и паник узлов в терминальный failed
//   - Восстановление незавершённых jobs после рестарта
//
// Listener подаёт события command-канала в тот же Engine.Submit,
// что и HTTP-фасад: путь выполнения job ровно один.
package orchestrator
