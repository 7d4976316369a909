package domain

import (
	"time"

	"github.com/google/uuid"
)

// Model carries the columns every persisted entity shares.
type Model struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	// Version is bumped on every update and never serialized.
	Version int `json:"-" gorm:"not null;default:0"`
}

func (m *Model) EntityID() uuid.UUID      { return m.ID }
func (m *Model) SetEntityID(id uuid.UUID) { m.ID = id }
func (m *Model) BumpVersion()             { m.Version++ }

// ResetServerFields clears the columns only the server may assign.
func (m *Model) ResetServerFields() {
	m.ID = uuid.Nil
	m.CreatedAt = time.Time{}
	m.Version = 0
}

// Entity is satisfied by pointers to structs embedding Model.
type Entity interface {
	EntityID() uuid.UUID
	SetEntityID(uuid.UUID)
	BumpVersion()
	ResetServerFields()
}
