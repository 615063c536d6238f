package enums

import "fmt"

// MovementType maps to the movement_type_enum enum in Postgres.
type MovementType string

const (
	MovementTypeOpeningStock MovementType = "opening_stock"
	MovementTypeRestock      MovementType = "restock"
	MovementTypeSale         MovementType = "sale"
	MovementTypeClosingStock MovementType = "closing_stock"
)

var validMovementTypes = []MovementType{
	MovementTypeOpeningStock,
	MovementTypeRestock,
	MovementTypeSale,
	MovementTypeClosingStock,
}

// IsValid reports whether the value matches the canonical movement enum.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsIntake reports whether the movement adds stock to the ledger balance.
func (t MovementType) IsIntake() bool {
	return t == MovementTypeOpeningStock || t == MovementTypeRestock
}

// SignedQuantity converts a raw quantity into its contribution to live
// stock. Closing counts are snapshots, not balance mutations, so they
// contribute zero.
func (t MovementType) SignedQuantity(qty int) int {
	switch t {
	case MovementTypeOpeningStock, MovementTypeRestock:
		return qty
	case MovementTypeSale:
		return -qty
	default:
		return 0
	}
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
