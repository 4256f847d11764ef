// engine.go reaches below the database/sql surface of the SQLite engine.
//
// Separated because it is the only code that depends on the engine's
// internal layout. The engine exposes no API for three things the driver
// needs: the stored text of a cell it has already parsed into a time, the
// column count of a statement before it runs, and a function table that
// belongs to one engine instance instead of the whole process.
//
// Design: Engine statements and rows both carry the owning connection (c)
// and the statement handle (pstmt); handleOf reads them once and the lib
// calls do the rest. A registry's functions are registered through the
// public API and then moved from the process-wide table into a private
// engine's table, so only connections that engine opens install them.
// Every accessor checks the layout and fails with errEngineLayout rather
// than guessing.

package driver

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"modernc.org/libc"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var errEngineLayout = errors.New("unsupported sqlite engine layout")

// handle addresses one compiled statement on one engine connection.
type handle struct {
	tls   *libc.TLS
	pstmt uintptr
}

// handleOf reads the statement handle from an engine statement or rows value.
func handleOf(v any) (handle, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return handle{}, fmt.Errorf("%w: %T", errEngineLayout, v)
	}
	rv = rv.Elem()

	pstmt := rv.FieldByName("pstmt")
	conn := rv.FieldByName("c")
	if !pstmt.IsValid() || pstmt.Kind() != reflect.Uintptr ||
		!conn.IsValid() || conn.Kind() != reflect.Pointer || conn.IsNil() {
		return handle{}, fmt.Errorf("%w: %T", errEngineLayout, v)
	}
	tls := conn.Elem().FieldByName("tls")
	if !tls.IsValid() || tls.Type() != reflect.TypeFor[*libc.TLS]() || tls.IsNil() {
		return handle{}, fmt.Errorf("%w: %T", errEngineLayout, v)
	}
	return handle{
		tls:   (*libc.TLS)(tls.UnsafePointer()),
		pstmt: uintptr(pstmt.Uint()),
	}, nil
}

// valid reports whether the handle names a compiled statement. The engine
// leaves it zero for multi-statement scripts.
func (h handle) valid() bool { return h.pstmt != 0 }

// columns returns the compiled statement's column count.
func (h handle) columns() int {
	return int(sqlite3.Xsqlite3_column_count(h.tls, h.pstmt))
}

// text returns column col of the current row as the engine stores it.
func (h handle) text(col int) string {
	p := sqlite3.Xsqlite3_column_text(h.tls, h.pstmt, int32(col))
	n := sqlite3.Xsqlite3_column_bytes(h.tls, h.pstmt, int32(col))
	if p == 0 || n == 0 {
		return ""
	}
	return string(libc.GoBytes(p, int(n)))
}

var (
	// udfMu serialises moves out of the process-wide function table.
	udfMu sync.Mutex

	sharedOnce   sync.Once
	sharedEngine *sqlite.Driver
	sharedErr    error
)

// processEngine returns the engine registered with database/sql, the one
// sqlite.RegisterFunction writes to.
func processEngine() (*sqlite.Driver, error) {
	sharedOnce.Do(func() {
		db, err := sql.Open("sqlite", "")
		if err != nil {
			sharedErr = fmt.Errorf("locate sqlite driver: %w", err)
			return
		}
		defer db.Close()

		eng, ok := db.Driver().(*sqlite.Driver)
		if !ok {
			sharedErr = fmt.Errorf("%w: %T", errEngineLayout, db.Driver())
			return
		}
		sharedEngine = eng
	})
	return sharedEngine, sharedErr
}

// functionTable returns d's function table as a settable map value.
func functionTable(d *sqlite.Driver) (reflect.Value, error) {
	f := reflect.ValueOf(d).Elem().FieldByName("udfs")
	if !f.IsValid() || f.Kind() != reflect.Map || f.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%w: function table", errEngineLayout)
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem(), nil
}

// privateEngine returns an engine whose connections install exactly the
// given functions. Names already held by the process-wide table fail with
// ErrFunctionConflict.
func privateEngine(order []string, impls map[string]*sqlite.FunctionImpl) (*sqlite.Driver, error) {
	shared, err := processEngine()
	if err != nil {
		return nil, err
	}
	eng := &sqlite.Driver{}

	udfMu.Lock()
	defer udfMu.Unlock()

	src, err := functionTable(shared)
	if err != nil {
		return nil, err
	}
	dst, err := functionTable(eng)
	if err != nil {
		return nil, err
	}
	dst.Set(reflect.MakeMap(dst.Type()))

	for _, name := range order {
		key := reflect.ValueOf(name)
		if src.MapIndex(key).IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrFunctionConflict, name)
		}
		if err := sqlite.RegisterFunction(name, impls[name]); err != nil {
			return nil, fmt.Errorf("register function %s: %w", name, err)
		}
		dst.SetMapIndex(key, src.MapIndex(key))
		src.SetMapIndex(key, reflect.Value{})
	}
	return eng, nil
}
