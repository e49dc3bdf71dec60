package postgres

const queryInsertSchedule = `
INSERT INTO schedules (id, title, body, topic, image, send_at, sent, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const queryGetSchedule = `
SELECT id, title, body, topic, image, send_at, sent, created_at, updated_at
FROM schedules
WHERE id = $1
`

const queryListSchedules = `
SELECT id, title, body, topic, image, send_at, sent, created_at, updated_at
FROM schedules
ORDER BY created_at ASC, id ASC
`

const queryUpdateSchedule = `
UPDATE schedules
SET title = $2, body = $3, topic = $4, image = $5, send_at = $6,
    sent = false, updated_at = $7
WHERE id = $1
`

const queryDeleteSchedule = `
DELETE FROM schedules WHERE id = $1
RETURNING id
`

const queryMarkSent = `
UPDATE schedules
SET sent = true, updated_at = $2
WHERE id = $1
  AND sent = false
`

const queryGetSentFlag = `
SELECT sent FROM schedules WHERE id = $1
`

const queryInsertHistory = `
INSERT INTO history (id, title, body, topic, image, type, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const queryListHistory = `
SELECT id, title, body, topic, image, type, occurred_at, created_at
FROM history
ORDER BY created_at DESC, id DESC
LIMIT $1
`

const queryDeleteSentBefore = `
DELETE FROM schedules
WHERE id IN (
    SELECT id FROM schedules
    WHERE sent = true
      AND updated_at < $1
    ORDER BY updated_at ASC
    LIMIT $2
)
`
