package database

import (
	"database/sql"
)

type PgSynapsoRepository struct {
	conn *sql.DB
}

func NewPgSynapsoRepository(dsn string) (*PgSynapsoRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgSynapsoRepository{conn: db}, nil
}

func (db *PgSynapsoRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgSynapsoRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
