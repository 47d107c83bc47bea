// Package lockfile implements the single-writer guard described in spec
// §5: the process writes a PID-bearing lockfile at startup and removes
// it on clean shutdown, so a second process cannot start against the
// same database while a live one still holds it. This is orthogonal to
// the store's own transactional locking (§4.1); it exists purely to stop
// two writers from ever opening the database in the first place.
package lockfile
