package postgresdb

const (
	coinColumns = `id, coin_type, balance::TEXT, owner, version, digest,
lock_timestamp, lock_expiry_timestamp, spent_tx_digest, spent_timestamp`

	insertCoinQuery = `INSERT INTO coin (
id, coin_type, balance, owner, version, digest,
lock_timestamp, lock_expiry_timestamp, spent_tx_digest, spent_timestamp
) VALUES ($1, $2, $3::NUMERIC, $4, $5, $6, $7, $8, $9, $10)`

	getCoinByIDQuery = `SELECT ` + coinColumns + ` FROM coin WHERE id = $1`

	getAllCoinsQuery = `SELECT ` + coinColumns + ` FROM coin ORDER BY id`

	getCoinsForOwnerQuery = `SELECT ` + coinColumns + `
FROM coin WHERE owner = $1 ORDER BY id`

	getSpendableCoinsForOwnerQuery = `SELECT ` + coinColumns + `
FROM coin WHERE owner = $1 AND lock_timestamp = 0 AND spent_tx_digest = ''
ORDER BY id`

	getLockedCoinsForOwnerQuery = `SELECT ` + coinColumns + `
FROM coin WHERE owner = $1 AND lock_timestamp > 0 AND spent_tx_digest = ''
ORDER BY id`

	lockCoinQuery = `UPDATE coin
SET lock_timestamp = $2, lock_expiry_timestamp = $3
WHERE id = $1 AND lock_timestamp = 0 AND spent_tx_digest = ''
RETURNING ` + coinColumns

	unlockCoinQuery = `UPDATE coin
SET lock_timestamp = 0, lock_expiry_timestamp = 0
WHERE id = $1 AND lock_timestamp > 0
RETURNING ` + coinColumns

	spendCoinQuery = `UPDATE coin
SET spent_tx_digest = $2, spent_timestamp = $3,
lock_timestamp = 0, lock_expiry_timestamp = 0
WHERE id = $1 AND spent_tx_digest = ''
RETURNING ` + coinColumns

	// A spent coin is revived only if the ledger reports it at a different
	// version. The right-hand side expressions read the row before the update.
	updateCoinQuery = `UPDATE coin
SET version = $2, digest = $3, balance = $4::NUMERIC,
spent_tx_digest = CASE WHEN version <> $2 THEN '' ELSE spent_tx_digest END,
spent_timestamp = CASE WHEN version <> $2 THEN 0 ELSE spent_timestamp END
WHERE id = $1 AND (
(spent_tx_digest = '' AND (version <> $2 OR balance <> $4::NUMERIC)) OR
(spent_tx_digest <> '' AND version <> $2)
)
RETURNING ` + coinColumns

	deleteCoinsForOwnerQuery = `DELETE FROM coin WHERE owner = $1`

	resetQuery = `TRUNCATE TABLE coin`
)
