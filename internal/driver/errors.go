package driver

import "errors"

var (
	// ErrUnsafeConnection is returned when a statement runs on a connection
	// that was not opened with exact integers enabled.
	ErrUnsafeConnection = errors.New("connection is not in safe integers mode")
	// ErrDisconnected is returned by operations on a closed driver.
	ErrDisconnected = errors.New("driver is disconnected")
	// ErrFunctionConflict is returned when a registry function name is
	// already held by the engine's process-wide function table.
	ErrFunctionConflict = errors.New("function already registered")
	// ErrFileMustExist is returned when FileMustExist is set and the
	// database file is missing.
	ErrFileMustExist = errors.New("database file does not exist")
	// ErrInvalidSynchronous is returned for an unknown WAL synchronous level.
	ErrInvalidSynchronous = errors.New("invalid wal synchronous level")
	// ErrStmtClosed is returned when a closed statement is executed.
	ErrStmtClosed = errors.New("statement is closed")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
)
