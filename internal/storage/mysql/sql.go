package mysql

// Slots are pre-created so that SELECT ... FOR UPDATE always locks a real
// row; locking a missing key would only take a gap lock and let two
// first-writers deadlock on insert.
const ensureSlotSQL = `
INSERT IGNORE INTO kv_slots (k, v)
VALUES (?, NULL)
`

const getSlotSQL = `
SELECT v
FROM kv_slots
WHERE k = ?
`

const lockSlotSQL = `
SELECT v
FROM kv_slots
WHERE k = ?
FOR UPDATE
`

const upsertSlotSQL = `
INSERT INTO kv_slots (k, v)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  v          = VALUES(v),
  updated_at = CURRENT_TIMESTAMP(3)
`

const updateSlotSQL = `
UPDATE kv_slots
SET v = ?, updated_at = CURRENT_TIMESTAMP(3)
WHERE k = ?
`
