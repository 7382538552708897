// Package gatewayhttp реализует локальный шлюз multipart-загрузок поверх диска.
// Он говорит тем же протоколом, что и удалённый API, и нужен для разработки и интеграционных тестов:
//   - POST /v1/uploads/init-multi-part: открывает сессию и выдаёт адреса частей.
//   - PUT /parts/{sessionID}/{partNumber}: принимает часть, отвечает ETag (MD5 в кавычках).
//   - HEAD /parts/{sessionID}/{partNumber}: размер и ETag сохранённой части.
//   - PUT /v1/uploads/complete-multi-part: проверяет ETag'и и склеивает объект.
//   - GET /files/{sessionID}/{name}: отдаёт собранный объект.
//   - POST /admin/gc: ручной сбор незавершённых сессий.
//   - GET /health: размер каталога данных.
package gatewayhttp
