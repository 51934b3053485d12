package dummydb

import (
	"sync"

	"github.com/trezcool/reportcard/core/report"
)

type (
	DB struct {
		student *studentTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*report.StoredStudent
		order []string // insertion order
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTable{table: make(map[string]*report.StoredStudent)},
	}
	return db, nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.student.Lock()
	defer db.student.Unlock()
	db.student.table = make(map[string]*report.StoredStudent)
	db.student.order = nil
}
