package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/maintenance"
	"github.com/trezcool/mahudhurio/core/user"
)

type (
	DB struct {
		user        *userTable
		maintenance *maintenanceTable
		attendance  *attendanceTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	maintenanceTable struct {
		sync.RWMutex
		settings *maintenance.Window
	}

	attendanceTables struct {
		sync.RWMutex
		classes map[string]*attendance.Class
		records map[string]*attendance.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		maintenance: &maintenanceTable{},
		attendance: &attendanceTables{
			classes: make(map[string]*attendance.Class),
			records: make(map[string]*attendance.Record),
		},
	}
	return db, nil
}
