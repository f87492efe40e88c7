// Package client реализует клиентов делегированных задач.
//
// WorkerClient публикует TaskRequest в очередь задачи и ждёт
// коррелированный TaskResult через реестр Pending. Регистрация
// ожидания всегда предшествует публикации, поэтому мгновенный
// callback не может потеряться. Router — единственный потребитель
// очереди callback'ов, он раздаёт результаты по (job_id, task_name).
package client
