package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ayusman/kursorin/internal/calibration"
)

// Profile is a named, persisted calibration.
type Profile struct {
	ID        string
	Name      string
	Record    calibration.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the calibration profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(p *Profile) error {
	data, err := json.Marshal(p.Record)
	if err != nil {
		return err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO calibration_profiles (id, name, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(data), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Update replaces the stored record for an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	data, err := json.Marshal(p.Record)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now()
	res, err := r.db.Exec(
		`UPDATE calibration_profiles SET name = ?, data = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(data), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a profile by ID.
func (r *ProfileRepository) Get(id string) (*Profile, error) {
	row := r.db.QueryRow(
		`SELECT id, name, data, created_at, updated_at FROM calibration_profiles WHERE id = ?`,
		id,
	)
	return scanProfile(row)
}

// List returns all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, data, created_at, updated_at FROM calibration_profiles ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Delete removes a profile by ID.
func (r *ProfileRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM calibration_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var data string
	err := row.Scan(&p.ID, &p.Name, &data, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Record); err != nil {
		return nil, err
	}
	return &p, nil
}
