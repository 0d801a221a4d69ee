package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type ReferenceType string

const (
	ReferenceNone       ReferenceType = ""
	ReferenceOrder      ReferenceType = "order"
	ReferenceAdjustment ReferenceType = "stock_adjustment"
)

// Reference points at the entity that caused a ledger row. Build it with
// NoReference, OrderRef or AdjustmentRef; the zero value is NoReference.
type Reference struct {
	Type     ReferenceType `gorm:"column:type;type:varchar(30)"`
	EntityID *uuid.UUID    `gorm:"column:id;type:uuid;index"`
}

func NoReference() Reference {
	return Reference{}
}

func OrderRef(id uuid.UUID) Reference {
	return Reference{Type: ReferenceOrder, EntityID: &id}
}

func AdjustmentRef(id uuid.UUID) Reference {
	return Reference{Type: ReferenceAdjustment, EntityID: &id}
}

// ParseReference builds a Reference from its wire form. An empty kind means
// no reference.
func ParseReference(kind string, id *uuid.UUID) (Reference, error) {
	switch ReferenceType(kind) {
	case ReferenceNone:
		if id != nil {
			return Reference{}, NewValidationError("reference_type", "required when reference_id is set")
		}
		return NoReference(), nil
	case ReferenceOrder, ReferenceAdjustment:
		if id == nil || *id == uuid.Nil {
			return Reference{}, NewValidationError("reference_id", "required when reference_type is set")
		}
		return Reference{Type: ReferenceType(kind), EntityID: id}, nil
	default:
		return Reference{}, NewValidationError("reference_type", fmt.Sprintf("unknown reference type %q", kind))
	}
}

func (r Reference) IsNone() bool {
	return r.Type == ReferenceNone
}

func (r Reference) String() string {
	if r.IsNone() || r.EntityID == nil {
		return "none"
	}
	return fmt.Sprintf("%s:%s", r.Type, r.EntityID)
}

type referenceJSON struct {
	Type ReferenceType `json:"type"`
	ID   uuid.UUID     `json:"id"`
}

func (r Reference) MarshalJSON() ([]byte, error) {
	if r.IsNone() || r.EntityID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(referenceJSON{Type: r.Type, ID: *r.EntityID})
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoReference()
		return nil
	}
	var raw referenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ref, err := ParseReference(string(raw.Type), &raw.ID)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
