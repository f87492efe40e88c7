// Package worker выполняет делегированные задачи media-пайплайна.
//
// # Обзор
//
// Worker — stateless компонент системы Conveyor. Он отвечает за:
//
//   - Потребление очереди tasks.<name> каждой зарегистрированной задачи
//   - Выполнение задачи через Executor
//   - Публикацию результата в callback-канал tasks.callbacks
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют одни и те же очереди.
//
// # Ключевые компоненты
//
// ## Worker
//
// Основная структура, управляющая жизненным циклом.
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	w := worker.New(worker.Config{
//	    Conn:      mqConn,
//	    Publisher: publisher,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Executor
//
// Интерфейс выполнения одной задачи:
//
//	type Executor interface {
//	    Execute(ctx context.Context, req mq.TaskRequest) (*ExecutionResult, error)
//	}
//
// Executor'ы пайплайна симулируют обработку медиа: детерминированные
// результаты с реалистичной задержкой. Хранение и реальная обработка
// байтов файла живут вне системы.
//
// ## Registry
//
// Реестр executor'ов по имени задачи. NewRegistry() регистрирует
// все задачи пайплайна: validate_file, extract_metadata, ветки
// image/video/pdf.
//
// # Ошибки
//
// Пакет различает два уровня ошибок:
//   - Логические (error от Execute: пустой путь, нет checksum) —
//     уходят callback'ом со статусом failed, терминальность решает
//     оркестратор
//   - Транспортные (публикация результата не удалась) — возвращаются
//     consumer'у, сообщение переигрывается
package worker
