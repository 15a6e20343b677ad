package records

import "time"

// Redemption registra que un usuario canjeó un share code sobre una mascota,
// con el tier congelado al momento del canje. Hay a lo sumo una fila por
// (PetID, UserID): re-canjear sobreescribe, no acumula.
// La leen tanto el resolver de acceso como el módulo de sharing; vive acá
// para que ninguno de los dos tenga que importar al otro.
type Redemption struct {
	PetID  string
	UserID string

	DisplayName string
	Tier        Tier
	RedeemedAt  time.Time

	Revoked bool
}
